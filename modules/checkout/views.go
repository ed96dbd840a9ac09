package checkout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	templruntime "github.com/a-h/templ/runtime"

	"github.com/ludens-school/paywidget/handler"
	"github.com/ludens-school/paywidget/pkg/i18n"
	"github.com/ludens-school/paywidget/pkg/plans"
	"github.com/ludens-school/paywidget/pkg/validator"
)

// DatastarScriptURL is the client runtime the attributes below are written for.
const DatastarScriptURL = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.6/bundles/datastar.js"

// Element ids patched by the actions.
const (
	IDWidget        = "checkout"
	IDTokenErrors   = "errors"
	IDPremiumErrors = "premiumErrors"
	IDPayButton     = "payBtn"
	IDPremiumButton = "payPremiumBtn"
	IDPlans         = "plans"
	IDToasts        = "toast-container"
)

// Views renders the widget. Every interpolated value is escaped.
type Views struct {
	tr        *i18n.Translator
	scriptURL string
	actions   string
}

type ViewOption func(*Views)

func WithScriptURL(url string) ViewOption {
	return func(v *Views) {
		if url != "" {
			v.scriptURL = url
		}
	}
}

// WithActionPrefix sets the path the datastar actions are posted to.
func WithActionPrefix(prefix string) ViewOption {
	return func(v *Views) { v.actions = strings.TrimRight(prefix, "/") }
}

func NewViews(tr *i18n.Translator, opts ...ViewOption) *Views {
	v := &Views{tr: tr, scriptURL: DatastarScriptURL, actions: "/checkout"}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// markup writes one component into the render buffer. The first write
// error sticks and drops the rest of the output.
type markup struct {
	buf  *templruntime.Buffer
	err  error
	tr   *i18n.Translator
	lang string
}

func (m *markup) raw(parts ...string) {
	for _, p := range parts {
		if m.err != nil {
			return
		}
		_, m.err = m.buf.WriteString(p)
	}
}

func (m *markup) text(s string) { m.raw(templ.EscapeString(s)) }

func (m *markup) attr(name, value string) {
	m.raw(" ", name, `="`, templ.EscapeString(value), `"`)
}

func (m *markup) flag(name string, on bool) {
	if on {
		m.raw(" ", name)
	}
}

func (m *markup) t(key string, args ...string) string {
	return m.tr.T(m.lang, key, args...)
}

// message resolves a validation error: the field specific key first, then
// the rule's own key, then its plain message.
func (m *markup) message(e validator.ValidationError) string {
	args := i18n.Args(m.lang, e.TranslationValues)
	for _, key := range []string{"validation." + e.Field + "." + e.Code, e.TranslationKey} {
		if key != "" && (m.tr.Has(m.lang, key) || m.tr.Has(m.tr.DefaultLanguage(), key)) {
			return m.t(key, args...)
		}
	}
	return e.Message
}

// component follows the shape of templ generated code: nested components
// share the parent's buffer, the outermost one releases it.
func (v *Views) component(fn func(m *markup)) templ.Component {
	return templruntime.GeneratedTemplate(func(in templruntime.GeneratedComponentInput) (err error) {
		w, ctx := in.Writer, in.Context
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		buf, isBuffer := templruntime.GetBuffer(w)
		if !isBuffer {
			defer func() {
				if releaseErr := templruntime.ReleaseBuffer(buf); err == nil {
					err = releaseErr
				}
			}()
		}
		m := &markup{buf: buf, tr: v.tr, lang: i18n.LanguageFromContext(ctx, v.tr.DefaultLanguage())}
		fn(m)
		return m.err
	})
}

func (v *Views) post(path string) string {
	return "@post('" + v.actions + path + "')"
}

// Page is the full checkout document.
func (v *Views) Page(st State, currencies []string) templ.Component {
	return v.component(func(m *markup) {
		m.raw("<!doctype html><html")
		m.attr("lang", m.lang)
		m.raw(`><head><meta charset="utf-8"><meta name="viewport" content="width=device-width, initial-scale=1"><title>`)
		m.text(m.t("page.title"))
		m.raw("</title><style>", pageCSS, "</style><script type=\"module\"")
		m.attr("src", v.scriptURL)
		m.raw("></script></head><body><main class=\"shell\"><div id=\"app\"")
		m.attr("data-signals", signalsJSON(st))
		m.raw(">")
		v.widget(m, st, currencies)
		m.raw("</div><div")
		m.attr("id", IDToasts)
		m.raw(` class="toasts" aria-live="polite"></div></main></body></html>`)
	})
}

// Widget is the interactive part of the page, patched whole on tab switch.
func (v *Views) Widget(st State, currencies []string) templ.Component {
	return v.component(func(m *markup) { v.widget(m, st, currencies) })
}

func (v *Views) widget(m *markup, st State, currencies []string) {
	m.raw("<div")
	m.attr("id", IDWidget)
	m.raw(` class="checkout"><h1>`)
	m.text(m.t("page.heading"))
	m.raw(`</h1><label class="field" for="account"><span>`)
	m.text(m.t("page.account_label"))
	m.raw(`</span><input id="account" name="account" type="text" autocomplete="off" spellcheck="false" data-bind:account`)
	m.attr("value", st.Account)
	m.attr("placeholder", m.t("page.account_placeholder"))
	m.attr("data-on:input__debounce.300ms", v.post("/account"))
	m.raw(`></label><p class="hint">`)
	m.text(m.t("page.account_hint"))
	m.raw(`</p><div class="tabs" role="tablist"`)
	m.attr("aria-label", m.t("tabs.label"))
	m.raw(">")
	v.tabButton(m, "tabTokensBtn", "tabTokens", TabTokens, st.Tab, m.t("tabs.tokens"))
	v.tabButton(m, "tabPremiumBtn", "tabPremium", TabPremium, st.Tab, m.t("tabs.premium"))
	m.raw(`</div><div class="stack">`)
	v.tokensPanel(m, st, currencies)
	v.premiumPanel(m, st)
	m.raw("</div>")
	v.aside(m, "asideTokens", st.Tab == TabTokens, m.t("tokens.aside"))
	v.aside(m, "asidePremium", st.Tab == TabPremium, m.t("premium.aside"))
	m.raw("</div>")
}

func (v *Views) tabButton(m *markup, id, panel string, tab, active Tab, label string) {
	on := tab == active
	m.raw(`<button type="button" role="tab"`)
	m.attr("id", id)
	m.attr("aria-controls", panel)
	m.attr("aria-selected", strconv.FormatBool(on))
	if on {
		m.attr("class", "tab active")
	} else {
		m.attr("class", "tab")
	}
	m.attr("data-on:click", v.post("/tab/"+string(tab)))
	m.raw(">")
	m.text(label)
	m.raw("</button>")
}

func panelOpen(m *markup, id, labelledBy string, active bool) {
	m.raw(`<section role="tabpanel"`)
	m.attr("id", id)
	m.attr("aria-labelledby", labelledBy)
	if active {
		m.attr("class", "panel")
		return
	}
	m.attr("class", "panel inactive")
	m.raw(` aria-hidden="true" inert`)
}

func (v *Views) aside(m *markup, id string, visible bool, text string) {
	m.raw("<aside")
	m.attr("id", id)
	m.attr("class", "aside")
	m.flag("hidden", !visible)
	m.raw("><p>")
	m.text(text)
	m.raw("</p></aside>")
}

func (v *Views) tokensPanel(m *markup, st State, currencies []string) {
	panelOpen(m, "tabTokens", "tabTokensBtn", st.Tab == TabTokens)
	m.raw(`><label class="field" for="tokensInput"><span>`)
	m.text(m.t("tokens.amount_label"))
	m.raw(`</span><input id="tokensInput" name="tokens" type="text" inputmode="numeric" autocomplete="off" data-bind:tokens-input`)
	m.attr("value", st.TokensInput)
	m.attr("data-on:input__debounce.200ms", v.post("/tokens/input"))
	m.raw(`></label><input id="tokensRange" type="range" data-bind:tokens-range`)
	m.attr("aria-label", m.t("tokens.range_label"))
	m.attr("min", strconv.Itoa(MinTokens))
	m.attr("max", strconv.Itoa(SliderMaxTokens))
	m.attr("step", "1")
	m.attr("value", strconv.Itoa(st.SliderValue()))
	m.attr("data-on:input__debounce.100ms", v.post("/tokens/range"))
	m.raw(`><div id="presets" class="presets" role="group"`)
	m.attr("aria-label", m.t("tokens.presets_label"))
	m.raw(">")
	for _, p := range Presets {
		m.raw(`<button type="button" class="preset"`)
		m.attr("data-on:click", v.post("/tokens/preset/"+strconv.Itoa(p)))
		m.flag(`aria-pressed="true"`, p == st.Tokens)
		m.raw(">")
		m.text(i18n.FormatInt(m.lang, int64(p)))
		m.raw("</button>")
	}
	m.raw(`</div><label class="field" for="currency"><span>`)
	m.text(m.t("tokens.currency_label"))
	m.raw(`</span><select id="currency" name="currency" data-bind:currency>`)
	for _, c := range currencies {
		m.raw("<option")
		m.attr("value", c)
		m.flag("selected", c == st.Currency)
		m.raw(">")
		m.text(c)
		m.raw("</option>")
	}
	m.raw("</select></label>")
	v.tokenErrors(m, st)
	v.payButton(m, st)
	m.raw("</section>")
}

func (v *Views) premiumPanel(m *markup, st State) {
	panelOpen(m, "tabPremium", "tabPremiumBtn", st.Tab == TabPremium)
	m.raw(">")
	v.plans(m, st)
	v.premiumErrors(m, st)
	v.premiumButton(m, st)
	m.raw("</section>")
}

// TokenErrors is the dismissable list of token flow problems.
func (v *Views) TokenErrors(st State) templ.Component {
	return v.component(func(m *markup) { v.tokenErrors(m, st) })
}

func (v *Views) tokenErrors(m *markup, st State) {
	v.errorList(m, IDTokenErrors, "errorsList", TabTokens, m.t("tokens.errors_title"), st.TokenErrors)
}

// PremiumErrors is the dismissable list of premium flow problems.
func (v *Views) PremiumErrors(st State) templ.Component {
	return v.component(func(m *markup) { v.premiumErrors(m, st) })
}

func (v *Views) premiumErrors(m *markup, st State) {
	v.errorList(m, IDPremiumErrors, "premiumErrorsList", TabPremium, m.t("premium.errors_title"), st.PremiumErrors)
}

func (v *Views) errorList(m *markup, id, listID string, tab Tab, title string, errs validator.ValidationErrors) {
	m.raw("<div")
	m.attr("id", id)
	if len(errs) == 0 {
		m.raw(` class="errors" hidden></div>`)
		return
	}
	m.raw(` class="errors" role="alert"><div class="errorsHead"><strong>`)
	m.text(title)
	m.raw(`</strong><button type="button" class="dismiss" aria-label="×"`)
	m.attr("data-on:click", v.post("/errors/dismiss/"+string(tab)))
	m.raw(">×</button></div><ul")
	m.attr("id", listID)
	m.raw(">")
	for _, e := range errs {
		m.raw("<li")
		m.attr("data-field", e.Field)
		m.attr("data-code", e.Code)
		m.raw(">")
		m.text(m.message(e))
		m.raw("</li>")
	}
	m.raw("</ul></div>")
}

// PayButton submits the token flow; it needs an account.
func (v *Views) PayButton(st State) templ.Component {
	return v.component(func(m *markup) { v.payButton(m, st) })
}

func (v *Views) payButton(m *markup, st State) {
	m.raw(`<button type="button" class="pay"`)
	m.attr("id", IDPayButton)
	m.flag("disabled", !st.CanPayTokens())
	m.attr("data-on:click", v.post("/tokens/submit"))
	m.raw(">")
	m.text(m.t("tokens.pay"))
	m.raw("</button>")
}

// PremiumButton submits the premium flow and shows the busy label while
// the payment page is being created.
func (v *Views) PremiumButton(st State) templ.Component {
	return v.component(func(m *markup) { v.premiumButton(m, st) })
}

func (v *Views) premiumButton(m *markup, st State) {
	m.raw(`<button type="button" class="pay"`)
	m.attr("id", IDPremiumButton)
	m.flag("disabled", !st.CanPayPremium())
	m.flag(`aria-busy="true"`, st.PremiumBusy)
	m.attr("data-on:click", v.post("/premium/submit"))
	m.raw(">")
	if st.PremiumBusy {
		m.text(m.t("premium.busy"))
	} else {
		m.text(m.t("premium.pay"))
	}
	m.raw("</button>")
}

// Plans renders the status line and one card per duration.
func (v *Views) Plans(st State) templ.Component {
	return v.component(func(m *markup) { v.plans(m, st) })
}

func (v *Views) plans(m *markup, st State) {
	snap := st.Plans
	m.raw("<div")
	m.attr("id", IDPlans)
	m.attr("class", "plans")
	if st.Tab == TabPremium && snap.Status == plans.StatusIdle {
		m.attr("data-init", v.post("/plans/load"))
	}
	m.raw(`><p id="plansStatus"`)
	switch {
	case snap.Loading():
		m.raw(` class="hint">`)
		m.text(m.t("plans.loading"))
	case snap.Failed():
		m.raw(` class="hint hintError" role="status">`)
		m.text(m.t("plans.load_failed"))
	default:
		m.raw(` class="hint">`)
	}
	m.raw(`</p><div id="plansGrid" class="grid">`)
	for _, days := range plans.Durations {
		v.planCard(m, st, days)
	}
	m.raw("</div></div>")
}

func (v *Views) planCard(m *markup, st State, days int) {
	selected := st.PlanSelected(days)
	code := st.Plans.Catalog.CodeFor(days)
	m.raw(`<button type="button"`)
	m.attr("id", "plan-"+strconv.Itoa(days))
	if selected {
		m.attr("class", "plan selected")
	} else {
		m.attr("class", "plan")
	}
	m.attr("data-plan-code", code)
	m.attr("data-days", strconv.Itoa(days))
	m.attr("aria-pressed", strconv.FormatBool(selected))
	m.attr("data-on:click", v.post("/plans/select/"+strconv.Itoa(days)))
	m.raw(`><span class="planTitle">`)
	m.text(m.t("premium.card_title", "days", i18n.FormatInt(m.lang, int64(days))))
	m.raw(`</span><span class="planPrice">`)
	m.text(priceLabel(m, st.Plans, days))
	m.raw("</span></button>")
}

func priceLabel(m *markup, snap plans.Snapshot, days int) string {
	p, ok := snap.Catalog.Lookup(days)
	switch {
	case !ok && snap.Loading():
		return m.t("premium.price_loading")
	case !ok, !p.HasAmount:
		return m.t("premium.price_unknown")
	}
	return m.t("premium.price", "amount", i18n.FormatAmountMinor(m.lang, float64(p.AmountMinor)))
}

// Toast is prepended to the toast container on failed actions.
func (v *Views) Toast(p handler.ErrorToastParams) templ.Component {
	return v.component(func(m *markup) {
		m.raw("<div")
		m.attr("class", "toast toast-"+p.Type)
		m.raw(` role="alert">`)
		m.text(p.Message)
		if p.RequestID != "" {
			m.raw(`<small>`)
			m.text(m.t("errors.request_id") + ": " + p.RequestID)
			m.raw("</small>")
		}
		m.raw("</div>")
	})
}

// ErrorPage is the document served when a plain request fails.
func (v *Views) ErrorPage(p handler.ErrorPageParams) templ.Component {
	return v.component(func(m *markup) {
		m.raw("<!doctype html><html")
		m.attr("lang", m.lang)
		m.raw(`><head><meta charset="utf-8"><title>`)
		m.text(fmt.Sprintf("%s %d", m.t("errors.title"), p.StatusCode))
		m.raw("</title><style>", pageCSS, `</style></head><body><main class="shell"><div class="checkout"><h1>`)
		m.text(m.t("errors.title"))
		m.raw("</h1><p>")
		m.text(p.Error)
		m.raw("</p>")
		if p.RequestID != "" {
			m.raw(`<p class="hint">`)
			m.text(m.t("errors.request_id") + ": " + p.RequestID)
			m.raw("</p>")
		}
		if p.RetryURL != "" {
			m.raw("<a")
			m.attr("href", p.RetryURL)
			m.raw(">")
			m.text(m.t("errors.retry"))
			m.raw("</a>")
		}
		m.raw("</div></main></body></html>")
	})
}

func signalsJSON(st State) string {
	b, err := json.Marshal(Signals{
		PageID:      st.PageID,
		Account:     st.Account,
		TokensInput: st.TokensInput,
		TokensRange: st.SliderValue(),
		Currency:    st.Currency,
	})
	if err != nil {
		return "{}"
	}
	return string(b)
}

const pageCSS = `
*{box-sizing:border-box}
body{margin:0;font:16px/1.4 system-ui,sans-serif;background:#0f1115;color:#e8e8ea}
.shell{max-width:560px;margin:0 auto;padding:24px 16px}
.checkout{display:flex;flex-direction:column;gap:12px}
.field{display:flex;flex-direction:column;gap:4px}
input,select,button{font:inherit}
input[type=text],select{padding:8px 10px;border-radius:8px;border:1px solid #333;background:#181b22;color:inherit}
.hint{margin:0;font-size:13px;opacity:.75}
.hintError{color:#ff7b7b;opacity:1}
.tabs{display:flex;gap:8px}
.tab{flex:1;padding:8px;border-radius:8px;border:1px solid #333;background:none;color:inherit;cursor:pointer}
.tab.active{background:#2b59ff;border-color:#2b59ff}
.stack{display:grid}
.stack>.panel{grid-area:1/1;display:flex;flex-direction:column;gap:12px}
.panel.inactive{visibility:hidden}
.presets,.grid{display:flex;gap:8px;flex-wrap:wrap}
.preset,.plan{padding:8px 12px;border-radius:8px;border:1px solid #333;background:#181b22;color:inherit;cursor:pointer}
.plan{flex:1;display:flex;flex-direction:column;gap:4px;min-width:140px}
.plan.selected,.preset[aria-pressed=true]{border-color:#2b59ff}
.pay{padding:12px;border:0;border-radius:10px;background:#2b59ff;color:#fff;cursor:pointer}
.pay:disabled{opacity:.5;cursor:not-allowed}
.errors{border:1px solid #ff7b7b;border-radius:8px;padding:8px 12px}
.errorsHead{display:flex;justify-content:space-between}
.dismiss{background:none;border:0;color:inherit;cursor:pointer}
.toasts{position:fixed;right:16px;bottom:16px;display:flex;flex-direction:column;gap:8px}
.toast{padding:10px 14px;border-radius:8px;background:#2a1618;border:1px solid #ff7b7b}
.toast small{display:block;opacity:.7}
`
