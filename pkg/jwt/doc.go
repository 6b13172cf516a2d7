// Package jwt signs and validates the RS256 access tokens that identify
// callers of the DeliverUS API.
//
// Tokens carry the user ID and role next to the registered claims:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "deliverus",
//	    ExpirationMins: 60,
//	})
//
//	token, err := svc.Sign(jwt.Claims{UserID: "user:1", Role: jwt.RoleOwner})
//	claims, err := svc.Validate(token)
//
// Validation failures map onto the package's sentinel errors
// (ErrTokenExpired, ErrInvalidSignature, ...) so callers never depend on the
// underlying library's error values.
package jwt
