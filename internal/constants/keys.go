package constants

const (
	KEY_APP_NAME             = "app"
	KEY_BODY                 = "body"
	KEY_CACHE_KEY            = "cacheKey"
	KEY_CART                 = "cart"
	KEY_CART_ITEM            = "cartItem"
	KEY_CART_ITEM_ID         = "cartItemId"
	KEY_CART_ITEM_QUANTITY   = "cartItemQuantity"
	KEY_CART_ITEMS           = "cartItems"
	KEY_CART_ITEMS_COUNT     = "cartItemsCount"
	KEY_CART_REVISION        = "cartRevision"
	KEY_CART_VERSION         = "cartVersion"
	KEY_CONFIG               = "config"
	KEY_DB_DRIVER            = "dbDriver"
	KEY_DB_URL               = "dbUrl"
	KEY_HEADER               = "header"
	KEY_JSON_CACHE           = "jsonCache"
	KEY_PATH_VALUES          = "pathValues"
	KEY_PROCESS              = "process"
	KEY_PRODUCT_ID           = "productId"
	KEY_REQUEST              = "request"
	KEY_REQUEST_BODY         = "requestBody"
	KEY_REQUEST_HOST         = "host"
	KEY_REQUEST_ID           = "requestId"
	KEY_REQUEST_IP           = "requesterIP"
	KEY_REQUEST_METHOD       = "requestMethod"
	KEY_REQUEST_URI          = "requestURI"
	KEY_REQUEST_URL          = "requestURL"
	KEY_RESPONSE_STATUS_CODE = "responseStatusCode"
	KEY_RETRY_ATTEMPT        = "retryAttempt"
	KEY_SPAN_ID              = "spanId"
	KEY_STORAGE_KEY          = "storageKey"
	KEY_TAG                  = "tag"
	KEY_TRACE_ID             = "traceId"
	KEY_USER_ID              = "userId"
)
