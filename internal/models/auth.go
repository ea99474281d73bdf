package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the authenticated user identity attached to requests.
// Token issuance lives in the identity service; this API only validates.
type JWTClaims struct {
	UserID string `json:"uid"`
	jwt.RegisteredClaims
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
