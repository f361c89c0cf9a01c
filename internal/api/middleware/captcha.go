package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaushalvasoya/homeco-real-estate/internal/captcha"
)

// CaptchaMiddleware verifies a Turnstile challenge token on public form
// submissions. The verifier skips the check when no secret is configured,
// so development and tests run without a captcha.
func CaptchaMiddleware(verifier captcha.IVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-Captcha-Token")

		ok, err := verifier.Verify(c.Request.Context(), token, c.ClientIP())
		if err != nil {
			log.Printf("Captcha verification error: %v", err)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"ok": false, "msg": "Captcha verification unavailable"})
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "msg": "Captcha verification failed"})
			return
		}

		c.Next()
	}
}
