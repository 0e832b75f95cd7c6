package auth

// AuthCredentials is the part of the auth service credential record a Kite
// session needs. Other fields of the record are ignored.
type AuthCredentials struct {
	ApiKey       string `json:"api_key"`
	SessionToken string `json:"session_token"`
	IsActive     bool   `json:"is_active"`
}

// KiteSession is the key and access token a Kite client is built from
type KiteSession struct {
	ApiKey       string
	SessionToken string
}
