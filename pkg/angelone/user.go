package angelone

import "github.com/riven-blade/smartconnect/pkg/smartapi"

// SessionReq logs in with client code, PIN and the current TOTP.
type SessionReq struct {
	ClientCode string `json:"clientcode"`
	Password   string `json:"password"`
	TOTP       string `json:"totp"`
}

func (SessionReq) Endpoint() smartapi.Endpoint { return smartapi.Login }

// SessionRes carries the tokens of an established session.
type SessionRes struct {
	JwtToken     string `json:"jwtToken"`
	RefreshToken string `json:"refreshToken"`
	FeedToken    string `json:"feedToken"`
}

// TokenReq exchanges a refresh token for a fresh session.
type TokenReq struct {
	RefreshToken string `json:"refreshToken"`
}

func (TokenReq) Endpoint() smartapi.Endpoint { return smartapi.Token }

// LogoutReq ends the session of a client.
type LogoutReq struct {
	ClientCode string `json:"clientcode"`
}

func (LogoutReq) Endpoint() smartapi.Endpoint { return smartapi.Logout }

// Profile is the logged-in user.
type Profile struct {
	ClientCode    string   `json:"clientcode"`
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	MobileNo      string   `json:"mobileno"`
	Exchanges     []string `json:"exchanges"`
	Products      []string `json:"products"`
	LastLoginTime string   `json:"lastlogintime"`
	BrokerID      string   `json:"brokerid"`
}

func (Profile) Endpoint() smartapi.Endpoint { return smartapi.UserProfile }
