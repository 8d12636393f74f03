package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/gandhirajj/doctor-appointment-api/internal/models"
	"github.com/gandhirajj/doctor-appointment-api/internal/response"
	"github.com/gandhirajj/doctor-appointment-api/internal/storage"
	"github.com/gandhirajj/doctor-appointment-api/internal/utils"
)

const subjectKey = "subject"

// Authenticate resolves the bearer token into a stored user and attaches
// it to the request context.
//
// This deployment serves the patient application only, so any
// authenticated subject whose role is not "patient" is rejected here.
// The appointment handlers still carry full doctor/admin visibility and
// permission paths; they become reachable in a deployment that drops
// this restriction.
func Authenticate(users storage.UserStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			response.AbortFail(c, http.StatusUnauthorized, "Not authorized to access this route - No token provided")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, "Not authorized to access this route - Invalid token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, "Not authorized to access this route - Invalid token")
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, "User not found")
			return
		}

		if user.Role != models.RolePatient {
			response.AbortFail(c, http.StatusForbidden, "Only patients can access this application")
			return
		}

		c.Set(subjectKey, user)
		c.Next()
	}
}

// Authorize restricts a route to the given roles. It assumes
// Authenticate already ran.
func Authorize(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		subject, ok := CurrentUser(c)
		if !ok {
			response.AbortFail(c, http.StatusUnauthorized, "Not authorized to access this route")
			return
		}
		for _, role := range roles {
			if subject.Role == role {
				c.Next()
				return
			}
		}
		response.AbortFail(c, http.StatusForbidden, "User role "+subject.Role+" is not authorized to access this route")
	}
}

// CurrentUser returns the subject Authenticate stored on the context.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(subjectKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// SetCurrentUser injects a subject directly, bypassing token
// verification. Tests use it to exercise the doctor/admin service paths
// that sit behind the patient-only gate.
func SetCurrentUser(c *gin.Context, user *models.User) {
	c.Set(subjectKey, user)
}
