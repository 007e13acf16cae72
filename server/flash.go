package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/ByLCY/redoku/subscriber"
)

const flashCookie = "redoku_flash"

// 提示级别，对应页面上的样式。
const (
	LevelSuccess = "success"
	LevelInfo    = "info"
	LevelError   = "error"
)

// 页面提示文案。
const (
	MsgEmptyText     = "Please enter the text you want converted to PDF."
	MsgEmailSaved    = "Email saved. Thank you!"
	MsgEmailExisting = "Email already saved. Good to see you again !"
	MsgEmailInvalid  = "Email looks invalid — not saved."
	MsgWrongPassword = "Incorrect password."
	MsgAdminDisabled = "Admin access is disabled."
)

// Notice 是一条一次性页面提示，通过 cookie 带到下一次页面访问。
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// noticeFor 把邮箱登记结果转换为提示；未填写邮箱时不提示。
func noticeFor(outcome subscriber.Outcome) (Notice, bool) {
	switch outcome {
	case subscriber.Saved:
		return Notice{Level: LevelSuccess, Message: MsgEmailSaved}, true
	case subscriber.Existing:
		return Notice{Level: LevelInfo, Message: MsgEmailExisting}, true
	case subscriber.Invalid:
		return Notice{Level: LevelError, Message: MsgEmailInvalid}, true
	default:
		return Notice{}, false
	}
}

func setFlash(w http.ResponseWriter, notices ...Notice) {
	if len(notices) == 0 {
		return
	}
	raw, err := json.Marshal(notices)
	if err != nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// popFlash 读取并清除提示；损坏的 cookie 直接丢弃。
func popFlash(w http.ResponseWriter, r *http.Request) []Notice {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1, HttpOnly: true})
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	var notices []Notice
	if err := json.Unmarshal(raw, &notices); err != nil {
		return nil
	}
	return notices
}
