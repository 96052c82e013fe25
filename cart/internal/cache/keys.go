package cache

const KEY_CART_BY_USER_ID = "cart:user:%s"
