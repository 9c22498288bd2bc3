package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"

	"eventpulse/internal/config"
	dbpkg "eventpulse/internal/db"
)

const (
	stateCookie = "ep_oauth_state"
	userInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

func oauthConfig(cfg *config.Config) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  cfg.OAuthRedirectURL,
		Scopes:       []string{"openid", "profile", "email"},
		Endpoint:     google.Endpoint,
	}
}

func setSessionCookie(ctx *fasthttp.RequestCtx, name string, userID uint) {
	var c fasthttp.Cookie
	c.SetKey(name)
	c.SetValue(strconv.Itoa(int(userID)))
	c.SetPath("/")
	c.SetHTTPOnly(true)
	ctx.Response.Header.SetCookie(&c)
}

// Health reports liveness.
func Health() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		jsonResponse(ctx, fasthttp.StatusOK, map[string]string{
			"status":  "ok",
			"message": "API is running",
		})
	}
}

// GoogleLogin redirects the browser to Google's consent page with a
// per-request state nonce.
func GoogleLogin(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		b := make([]byte, 16)
		if _, err := rand.Read(b); err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error starting login.")
			return
		}
		state := hex.EncodeToString(b)

		var c fasthttp.Cookie
		c.SetKey(stateCookie)
		c.SetValue(state)
		c.SetPath("/")
		c.SetHTTPOnly(true)
		c.SetMaxAge(300)
		ctx.Response.Header.SetCookie(&c)

		ctx.Redirect(oauthConfig(cfg).AuthCodeURL(state), fasthttp.StatusSeeOther)
	}
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// GoogleCallback exchanges the authorization code, upserts the user row by
// Google id, and opens a session.
func GoogleCallback(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		state := string(ctx.QueryArgs().Peek("state"))
		if state == "" || state != string(ctx.Request.Header.Cookie(stateCookie)) {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Invalid OAuth state.")
			return
		}

		code := string(ctx.QueryArgs().Peek("code"))
		if code == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "Missing authorization code.")
			return
		}

		oc := oauthConfig(cfg)
		token, err := oc.Exchange(ctx, code)
		if err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "OAuth code exchange failed.")
			return
		}

		info, err := fetchGoogleUserInfo(oc.Client(ctx, token))
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Failed to fetch Google profile.")
			return
		}

		var user dbpkg.User
		err = gdb.Where("google_id = ?", info.ID).First(&user).Error
		if err == gorm.ErrRecordNotFound {
			user = dbpkg.User{GoogleID: info.ID, Email: info.Email, Name: info.Name}
			err = gdb.Create(&user).Error
		}
		if err != nil {
			errResponse(ctx, fasthttp.StatusInternalServerError, "Server error during login.")
			return
		}

		setSessionCookie(ctx, cfg.SessionCookie, user.ID)
		ctx.Redirect("/api/auth/profile", fasthttp.StatusSeeOther)
	}
}

func fetchGoogleUserInfo(client *http.Client) (*googleUserInfo, error) {
	client.Timeout = 5 * time.Second
	resp, err := client.Get(userInfoURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Profile confirms the owner is signed in.
func Profile() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		user, ok := MustUser(ctx)
		if !ok {
			return
		}
		jsonResponse(ctx, fasthttp.StatusOK, map[string]any{
			"message": "You are logged in!",
			"user": map[string]any{
				"id":    user.ID,
				"name":  user.Name,
				"email": user.Email,
			},
		})
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login opens a session for a local account. Accounts without a password
// hash (OAuth-only) cannot sign in this way.
func Login(gdb *gorm.DB, cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var req loginRequest
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			errResponse(ctx, fasthttp.StatusBadRequest, "Invalid JSON body.")
			return
		}
		if req.Email == "" || req.Password == "" {
			errResponse(ctx, fasthttp.StatusBadRequest, "Email and password are required.")
			return
		}

		var user dbpkg.User
		if err := gdb.Where("email = ?", req.Email).First(&user).Error; err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Invalid email or password.")
			return
		}
		if user.PasswordHash == "" {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Invalid email or password.")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			errResponse(ctx, fasthttp.StatusUnauthorized, "Invalid email or password.")
			return
		}

		setSessionCookie(ctx, cfg.SessionCookie, user.ID)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]string{"message": "Logged in."})
	}
}

// Logout clears the session cookie.
func Logout(cfg *config.Config) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		var c fasthttp.Cookie
		c.SetKey(cfg.SessionCookie)
		c.SetValue("")
		c.SetPath("/")
		c.SetMaxAge(-1)
		ctx.Response.Header.SetCookie(&c)
		jsonResponse(ctx, fasthttp.StatusOK, map[string]string{"message": "Logged out."})
	}
}
