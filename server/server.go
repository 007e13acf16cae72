package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ByLCY/redoku/auth"
	"github.com/ByLCY/redoku/document"
	"github.com/ByLCY/redoku/subscriber"
)

// DefaultMaxTextBytes 限制表单请求体大小。
const DefaultMaxTextBytes = 1 << 20

// DownloadName 是生成的 PDF 附件文件名。
const DownloadName = "redoku_output.pdf"

const sessionCookie = "redoku_admin"

//go:embed templates/*.html
var templateFS embed.FS

// Generator 把文本转换为 PDF。
type Generator interface {
	Generate(text string) ([]byte, error)
}

// Subscribers 登记邮箱并列出订阅者。
type Subscribers interface {
	Record(ctx context.Context, email string) (subscriber.Outcome, error)
	List(ctx context.Context) ([]subscriber.Subscriber, error)
}

// Config 汇总服务所需的依赖；Subscribers 为 nil 时忽略邮箱，后台页为空。
type Config struct {
	Generator    Generator
	Subscribers  Subscribers
	Sessions     *auth.Sessions
	Logger       *slog.Logger
	SiteName     string
	MaxTextBytes int64
	SecureCookie bool
}

// Server 提供网页表单、PDF 下载与订阅者后台。
type Server struct {
	cfg  Config
	tmpl *template.Template
	mux  *http.ServeMux
}

// New 校验配置、解析模板并注册路由。
func New(cfg Config) (*Server, error) {
	if cfg.Generator == nil {
		return nil, fmt.Errorf("server: 缺少 PDF 生成器")
	}
	if cfg.Sessions == nil {
		cfg.Sessions = auth.NewSessions("", 0)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Redoku"
	}
	if cfg.MaxTextBytes <= 0 {
		cfg.MaxTextBytes = DefaultMaxTextBytes
	}
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"date": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}

	s := &Server{cfg: cfg, tmpl: tmpl, mux: http.NewServeMux()}
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /generate", s.handleGenerate)
	s.mux.HandleFunc("GET /admin", s.handleAdmin)
	s.mux.HandleFunc("POST /admin", s.handleLogin)
	s.mux.HandleFunc("POST /admin/logout", s.handleLogout)
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.mux.ServeHTTP(rec, r)
	s.cfg.Logger.Info("request",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", rec.status),
		slog.Duration("elapsed", time.Since(start)),
	)
}

type pageData struct {
	SiteName    string
	Notices     []Notice
	Error       string
	Subscribers []subscriber.Subscriber
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data pageData) {
	data.SiteName = s.cfg.SiteName
	var buf strings.Builder
	if err := s.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		s.cfg.Logger.Error("render template", slog.String("template", name), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(buf.String()))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, "index.html", pageData{Notices: popFlash(w, r)})
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTextBytes)
	if err := r.ParseForm(); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "text too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	text := strings.TrimSpace(r.PostFormValue("text"))
	if text == "" {
		s.redirectWithNotice(w, r, "/", Notice{Level: LevelError, Message: MsgEmptyText})
		return
	}

	var notices []Notice
	if s.cfg.Subscribers != nil {
		outcome, err := s.cfg.Subscribers.Record(r.Context(), r.PostFormValue("email"))
		if err != nil {
			// 登记失败不影响 PDF 交付
			s.cfg.Logger.Error("record subscriber", slog.Any("error", err))
		} else if n, ok := noticeFor(outcome); ok {
			notices = append(notices, n)
		}
	}

	data, err := s.cfg.Generator.Generate(text)
	if errors.Is(err, document.ErrEmptyText) {
		s.redirectWithNotice(w, r, "/", Notice{Level: LevelError, Message: MsgEmptyText})
		return
	}
	if err != nil {
		s.cfg.Logger.Error("generate pdf", slog.Any("error", err))
		http.Error(w, "failed to generate PDF", http.StatusInternalServerError)
		return
	}

	setFlash(w, notices...)
	h := w.Header()
	h.Set("Content-Type", "application/pdf")
	h.Set("Content-Disposition", `attachment; filename="`+DownloadName+`"`)
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		s.render(w, http.StatusOK, "login.html", pageData{})
		return
	}
	var subs []subscriber.Subscriber
	if s.cfg.Subscribers != nil {
		list, err := s.cfg.Subscribers.List(r.Context())
		if err != nil {
			s.cfg.Logger.Error("list subscribers", slog.Any("error", err))
			http.Error(w, "failed to load subscribers", http.StatusInternalServerError)
			return
		}
		subs = list
	}
	s.render(w, http.StatusOK, "admin.html", pageData{Subscribers: subs})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxTextBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	token, err := s.cfg.Sessions.Login(r.PostFormValue("password"))
	switch {
	case errors.Is(err, auth.ErrDisabled):
		s.render(w, http.StatusForbidden, "login.html", pageData{Error: MsgAdminDisabled})
		return
	case err != nil:
		s.cfg.Logger.Warn("admin login failed", slog.String("remote", r.RemoteAddr))
		s.render(w, http.StatusUnauthorized, "login.html", pageData{Error: MsgWrongPassword})
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/admin",
		MaxAge:   int(s.cfg.Sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		s.cfg.Sessions.Revoke(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Path: "/admin", MaxAge: -1, HttpOnly: true})
	http.Redirect(w, r, "/admin", http.StatusSeeOther)
}

func (s *Server) authorized(r *http.Request) bool {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return s.cfg.Sessions.Valid(c.Value)
}

func (s *Server) redirectWithNotice(w http.ResponseWriter, r *http.Request, to string, n Notice) {
	setFlash(w, n)
	http.Redirect(w, r, to, http.StatusSeeOther)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
