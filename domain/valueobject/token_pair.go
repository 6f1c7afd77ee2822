package valueobject

// TokenPair carries the tokens written to a response. RefreshToken is empty when
// only an access token was reissued.
type TokenPair struct {
	AccessToken  string `json:"-"`
	RefreshToken string `json:"-"`
}

func NewTokenPair(accessToken, refreshToken string) TokenPair {
	return TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
}

func (p TokenPair) HasRefreshToken() bool {
	return p.RefreshToken != ""
}
