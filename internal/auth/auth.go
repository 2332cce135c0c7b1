package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/yujinliee/wastewise/internal/db"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"
)

// Viewer is the authenticated principal consuming a feed.
type Viewer struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

type User struct {
	ID          int64     `db:"id" json:"id"`
	UID         string    `db:"uid" json:"uid"`
	Email       string    `db:"email" json:"email" validate:"required,email"`
	DisplayName string    `db:"display_name" json:"display_name"`
	Password    string    `db:"password" json:"-" validate:"required,password"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

type SignupRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required"`
	Password    string `json:"password" validate:"required,password"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token  string  `json:"token"`
	Viewer *Viewer `json:"viewer"`
}

func CreateUser(email, displayName, password string) (*User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		UID:         uuid.New().String(),
		Email:       email,
		DisplayName: displayName,
		Password:    string(hashedPassword),
	}

	err = db.DB.QueryRow(`
		INSERT INTO users (uid, email, display_name, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, user.UID, email, displayName, hashedPassword).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return nil, err
	}

	return user, nil
}

func GetUserByEmail(email string) (*User, error) {
	user := &User{}
	err := db.DB.Get(user, "SELECT * FROM users WHERE email = $1", email)
	if err == sql.ErrNoRows {
		return nil, errors.New("user not found")
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (u *User) AsViewer() *Viewer {
	return &Viewer{ID: u.UID, DisplayName: u.DisplayName, Email: u.Email}
}

func GenerateToken(user *User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.UID,
		"email": user.Email,
		"name":  user.DisplayName,
		"exp":   time.Now().Add(time.Hour * 24).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(jwtSecret()))
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func jwtSecret() string {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "your-secret-key" // Use this only for development
	}
	return secret
}

const viewerContextKey = "viewer"

// JWTMiddleware verifies the bearer token and places the Viewer into the
// request context.
func JWTMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Authorization header is required"})
		}

		if len(authHeader) < 7 || authHeader[:7] != "Bearer " {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format"})
		}

		tokenString := authHeader[7:]
		if tokenString == "" {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token format"})
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(jwtSecret()), nil
		})

		if err != nil {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
		}

		if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
			viewer := &Viewer{}
			viewer.ID, _ = claims["sub"].(string)
			viewer.Email, _ = claims["email"].(string)
			viewer.DisplayName, _ = claims["name"].(string)
			if viewer.ID == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
			}
			c.Set(viewerContextKey, viewer)
			return next(c)
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid token"})
	}
}

// CurrentViewer returns the authenticated viewer, or nil outside the JWT
// middleware.
func CurrentViewer(c echo.Context) *Viewer {
	viewer, _ := c.Get(viewerContextKey).(*Viewer)
	return viewer
}
