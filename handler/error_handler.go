package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/ludens-school/paywidget/pkg/logger"
	"github.com/ludens-school/paywidget/pkg/requestid"
	"github.com/ludens-school/paywidget/pkg/validator"
)

type ErrorPageParams struct {
	Error      string
	StatusCode int
	RequestID  string
	RetryURL   string
}

type ErrorToastParams struct {
	Message   string
	Type      string // error, warning or info
	RequestID string
}

type ErrorHandlerConfig struct {
	// ErrorPage renders the page for plain requests. Without it a text
	// response is written.
	ErrorPage func(ErrorPageParams) templ.Component

	// ErrorToast is patched into ToastTarget for datastar requests.
	ErrorToast func(ErrorToastParams) templ.Component

	// ToastTarget defaults to "#toast-container".
	ToastTarget string

	// ToastMode defaults to PatchPrepend.
	ToastMode datastar.ElementPatchMode

	// Translate turns HTTPError keys into user-facing text.
	Translate func(ctx context.Context, key string) string
}

// ErrorInfo is the classification of an error.
type ErrorInfo struct {
	StatusCode int
	Message    string
	Type       string
	LogLevel   slog.Level
}

const genericErrorKey = "errors.internal"

func classifyError(err error) ErrorInfo {
	info := ErrorInfo{
		StatusCode: http.StatusInternalServerError,
		Message:    genericErrorKey,
	}

	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		info.StatusCode = httpErr.Code
		info.Message = httpErr.Key
	}

	if ve := validator.Extract(err); ve != nil {
		info.StatusCode = http.StatusUnprocessableEntity
		msgs := make([]string, 0, len(ve))
		for _, e := range ve {
			msgs = append(msgs, e.Message)
		}
		info.Message = strings.Join(msgs, "; ")
	}

	switch {
	case info.StatusCode >= http.StatusInternalServerError:
		info.Type = "error"
		info.LogLevel = slog.LevelError
	case info.StatusCode >= http.StatusBadRequest:
		info.Type = "warning"
		info.LogLevel = slog.LevelWarn
	default:
		info.Type = "info"
		info.LogLevel = slog.LevelInfo
	}
	return info
}

// NewErrorHandler returns an ErrorHandler that logs the error and answers
// with an error page, or with a toast patch for datastar requests.
func NewErrorHandler(log *slog.Logger, cfg ErrorHandlerConfig) ErrorHandler[Context] {
	if cfg.ToastTarget == "" {
		cfg.ToastTarget = "#toast-container"
	}
	if cfg.ToastMode == "" {
		cfg.ToastMode = PatchPrepend
	}
	if log == nil {
		log = slog.Default()
	}

	return func(ctx Context, err error) {
		r := ctx.Request()
		reqID := requestid.FromContext(r.Context())
		info := classifyError(err)
		if cfg.Translate != nil {
			info.Message = cfg.Translate(r.Context(), info.Message)
		}

		log.LogAttrs(r.Context(), info.LogLevel, "request error",
			logger.Component("error_handler"),
			logger.RequestID(reqID),
			logger.Error(err),
			logger.StatusCode(info.StatusCode),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Bool("datastar", IsDataStar(r)),
		)

		if IsDataStar(r) {
			renderToast(ctx, log, cfg, info, reqID)
			return
		}
		renderPage(ctx, log, cfg, info, reqID)
	}
}

func renderToast(ctx Context, log *slog.Logger, cfg ErrorHandlerConfig, info ErrorInfo, reqID string) {
	if cfg.ErrorToast == nil {
		log.Warn("no error toast configured", logger.RequestID(reqID), logger.Component("error_handler"))
		return
	}
	resp := Templ(
		cfg.ErrorToast(ErrorToastParams{Message: info.Message, Type: info.Type, RequestID: reqID}),
		WithTarget(cfg.ToastTarget),
		WithPatchMode(cfg.ToastMode),
	)
	if err := resp.Render(ctx.ResponseWriter(), ctx.Request()); err != nil {
		log.Error("failed to render error toast", logger.RequestID(reqID), logger.Error(err), logger.Event("render_error_toast"))
	}
}

func renderPage(ctx Context, log *slog.Logger, cfg ErrorHandlerConfig, info ErrorInfo, reqID string) {
	w := ctx.ResponseWriter()
	if cfg.ErrorPage == nil {
		http.Error(w, info.Message, info.StatusCode)
		return
	}
	page := cfg.ErrorPage(ErrorPageParams{
		Error:      info.Message,
		StatusCode: info.StatusCode,
		RequestID:  reqID,
		RetryURL:   ctx.Request().URL.Path,
	})
	if err := TemplWithStatus(info.StatusCode, page).Render(w, ctx.Request()); err != nil {
		log.Error("failed to render error page", logger.RequestID(reqID), logger.Error(err), logger.Event("render_error_page"))
	}
}
