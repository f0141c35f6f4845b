package auth

import (
	"time"

	"github.com/gin-gonic/gin"
)

const ginKeyAuthErr = "auth_error"

// Authenticate verifies the bearer token, when one is present, and injects the
// identity into the request context.
//
// It never aborts: a missing header yields the implicit anonymous identity and a
// bad token is recorded for rbac.Require, which owns the allow/deny decision.
func Authenticate(v *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := Anonymous()
		tok, err := ExtractToken(c.GetHeader(authorizationHeader))
		if err == nil {
			claims, err = v.Parse(tok, time.Now())
			if err != nil {
				tok = ""
				claims = Anonymous()
			}
		} else {
			tok = ""
		}
		if err != nil {
			c.Set(ginKeyAuthErr, err)
		}

		ctx := WithIdentity(c.Request.Context(), tok, claims)
		c.Request = c.Request.WithContext(ctx)

		// Also store on gin context for handler convenience.
		c.Set("role", claims.Role)
		c.Set("sub", claims.Subject)

		c.Next()
	}
}

// AuthErr returns the failure recorded by Authenticate, if any.
func AuthErr(c *gin.Context) error {
	if v, ok := c.Get(ginKeyAuthErr); ok {
		if err, ok := v.(error); ok {
			return err
		}
	}
	return nil
}
