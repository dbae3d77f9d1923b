package common

// SessionCookieName is the HTTP cookie carrying the signed session token.
const SessionCookieName = "session"

// PurposePasswordReset scopes tokens mailed out for password resets.
const PurposePasswordReset = "password-reset"
