package common

// AuthorizationHeaderName is the HTTP header carrying the access token.
const AuthorizationHeaderName = "Authorization"

// TokenKeywords are the accepted authorization schemes. "Token" is the
// scheme issued clients historically use, "Bearer" the RFC 6750 one.
var TokenKeywords = []string{"Token", "Bearer"}

// AuthTokenSize is the number of random bytes in an opaque auth token key.
// Hex encoding doubles it to 40 characters.
const AuthTokenSize = 20
