package constants

const (
	APP_CART_SERVICE   = "cart-service"
	APP_STOREFRONT     = "storefront"
	APP_MAIN           = "main wintercollection"
)
