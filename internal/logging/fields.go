package logging

import "log/slog"

// Common field names for consistent logging across the service.
const (
	FieldUserID   = "user_id"
	FieldUsername = "username"
	FieldSector   = "sector"
	FieldIP       = "ip"
	FieldError    = "error"
)

func UserID(id string) slog.Attr {
	return slog.String(FieldUserID, id)
}

func Username(name string) slog.Attr {
	return slog.String(FieldUsername, name)
}

func Sector(name string) slog.Attr {
	return slog.String(FieldSector, name)
}

func IP(ip string) slog.Attr {
	return slog.String(FieldIP, ip)
}

func Error(err error) slog.Attr {
	return slog.String(FieldError, err.Error())
}
