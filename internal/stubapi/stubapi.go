// Package stubapi is a small gin backend implementing the external interfaces
// the client consumes: puzzle issuance, challenge-gated shortening, the
// delegated verifier, and bearer-authenticated account routes. It backs the
// integration tests and the cmd/stubapi binary; its verification logic is
// deliberately trivial.
package stubapi

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Config controls the stub's behavior.
type Config struct {
	// JWTSecret signs session tokens. A random secret is generated when
	// empty.
	JWTSecret string

	// ResultField selects which field name the shorten response uses:
	// "shortUrl" (default), "short_url" or "full_url". Real deployments
	// drifted apart here; the stub reproduces each variant.
	ResultField string

	// LinkBase prefixes generated short links.
	LinkBase string

	// TokenTTL bounds issued session tokens, 24h by default.
	TokenTTL time.Duration
}

type account struct {
	id       int64
	email    string
	password string
}

// Server holds the stub's in-memory state.
type Server struct {
	cfg Config

	mu            sync.Mutex
	captchaAnswer string
	verifyTokens  map[string]bool
	accounts      map[string]*account
	links         map[string]string
	nextID        int64
}

// New creates a stub server
func New(cfg Config) *Server {
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = uuid.New().String()
	}
	if cfg.ResultField == "" {
		cfg.ResultField = "shortUrl"
	}
	if cfg.LinkBase == "" {
		cfg.LinkBase = "http://short.test"
	}
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}

	return &Server{
		cfg:          cfg,
		verifyTokens: make(map[string]bool),
		accounts:     make(map[string]*account),
		links:        make(map[string]string),
	}
}

// Router builds the gin engine with all stub routes.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	api := router.Group("/api")
	{
		api.GET("/captcha", s.handleCaptcha)
		api.POST("/shorten", s.handleShorten)
		api.POST("/verify", s.handleVerify)
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/register", s.handleRegister)
	}

	protected := router.Group("/api")
	protected.Use(s.authMiddleware())
	{
		protected.GET("/my-videos", s.handleMyVideos)
	}

	return router
}

// AddUser seeds an account so tests can log in without registering.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.accounts[username] = &account{id: s.nextID, password: password}
}

// CurrentAnswer exposes the outstanding captcha solution for tests.
func (s *Server) CurrentAnswer() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.captchaAnswer
}

// handleCaptcha issues a fresh puzzle, replacing the outstanding one.
func (s *Server) handleCaptcha(c *gin.Context) {
	answer := randomAnswer()

	image, err := renderCaptcha(answer)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render captcha"})
		return
	}

	s.mu.Lock()
	s.captchaAnswer = answer
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"image": image})
}

// handleVerify plays the external verifier: it mints a single-use
// action-scoped token.
func (s *Server) handleVerify(c *gin.Context) {
	var req struct {
		Action string `json:"action" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token := req.Action + ":" + uuid.New().String()

	s.mu.Lock()
	s.verifyTokens[token] = true
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleShorten(c *gin.Context) {
	var req struct {
		URL          string `json:"url" binding:"required"`
		Captcha      string `json:"captcha"`
		CaptchaToken string `json:"captchaToken"`
		CustomCode   string `json:"customCode"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if !s.consumeProof(req.Captcha, req.CaptchaToken) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid captcha"})
		return
	}

	code := req.CustomCode
	if code == "" {
		code = strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	}

	s.mu.Lock()
	s.links[code] = req.URL
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{s.cfg.ResultField: s.cfg.LinkBase + "/" + code})
}

// consumeProof validates whichever proof field was populated. Both kinds are
// single use: the puzzle answer is discarded and a verifier token is deleted
// once checked.
func (s *Server) consumeProof(captcha, captchaToken string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if captchaToken != "" {
		if !s.verifyTokens[captchaToken] {
			return false
		}
		delete(s.verifyTokens, captchaToken)
		return true
	}

	if captcha == "" || s.captchaAnswer == "" {
		return false
	}

	ok := strings.EqualFold(captcha, s.captchaAnswer)
	s.captchaAnswer = ""

	return ok
}

func (s *Server) handleLogin(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[req.Username]
	s.mu.Unlock()

	if !ok || acct.password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	s.respondWithSession(c, req.Username, acct)
}

func (s *Server) handleRegister(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	s.mu.Lock()
	if _, exists := s.accounts[req.Username]; exists {
		s.mu.Unlock()
		c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
		return
	}
	s.nextID++
	acct := &account{id: s.nextID, email: req.Email, password: req.Password}
	s.accounts[req.Username] = acct
	s.mu.Unlock()

	s.respondWithSession(c, req.Username, acct)
}

func (s *Server) respondWithSession(c *gin.Context, username string, acct *account) {
	token, err := s.mintToken(acct.id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":       acct.id,
			"username": username,
			"email":    acct.email,
		},
	})
}

func (s *Server) handleMyVideos(c *gin.Context) {
	userID, _ := c.Get("userID")

	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"videos":  []any{},
	})
}

type sessionClaims struct {
	UserID int64 `json:"user_id"`
	jwt.RegisteredClaims
}

func (s *Server) mintToken(userID int64) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// authMiddleware validates the bearer token on protected routes, answering
// 401 for anything missing, malformed or expired.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")

		if len(auth) < 8 || auth[:7] != "Bearer " {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header"})
			return
		}

		claims := &sessionClaims{}
		token, err := jwt.ParseWithClaims(auth[7:], claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(s.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("userID", claims.UserID)
		c.Next()
	}
}
