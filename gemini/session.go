package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/microcosm-cc/bluemonday"

	"github.com/valmera/docgate/gemini/internal/browser"
)

// composerXPath locates the conversational input surface. This and the JS
// snippets below are the entire selector surface kept from the upstream
// UI; everything else goes through them.
const composerXPath = `//div[@role='textbox' and @contenteditable='true']`

// rodSession drives the agent UI through one Rod page. Not safe for
// concurrent use; the Gateway serializes access.
type rodSession struct {
	cfg       Config
	mgr       *browser.Manager
	page      *rod.Page
	conv      *converter.Converter
	sanitizer *bluemonday.Policy
	logger    *slog.Logger
}

// newRodSession launches Chrome with the persistent profile and returns a
// ready-to-use session. The page itself is created lazily in EnsureReady.
func newRodSession(cfg Config) (session, error) {
	mgr := browser.NewManager(browser.Config{
		UserDataDir: cfg.UserDataDir,
		ProfileDir:  cfg.ProfileDir,
		Headless:    cfg.Headless,
		Logger:      cfg.Logger,
	})
	if _, err := mgr.Start(); err != nil {
		return nil, err
	}

	return &rodSession{
		cfg: cfg,
		mgr: mgr,
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
		sanitizer: bluemonday.UGCPolicy(),
		logger:    cfg.Logger,
	}, nil
}

// EnsureReady brings the session to a known-ready interaction surface:
// agent page loaded, interstitials dismissed, composer present, fresh
// conversation, composer cleared of any leftover state.
func (s *rodSession) EnsureReady(ctx context.Context) error {
	if s.page == nil {
		page, err := s.mgr.NewPage()
		if err != nil {
			return err
		}
		s.page = page
	}

	if !s.onAgentPage() {
		navCtx, cancel := context.WithTimeout(ctx, 25*time.Second)
		defer cancel()
		if err := s.page.Context(navCtx).Navigate(s.cfg.AgentURL); err != nil {
			return fmt.Errorf("navigate: %w", err)
		}
		if err := s.page.Context(navCtx).WaitLoad(); err != nil {
			s.logger.Warn("gemini: wait load timeout", "error", err)
		}
		s.dismissInterstitials(ctx)
	}

	if err := s.waitComposer(ctx); err != nil {
		return err
	}

	// New conversation, best effort: some builds hide the button when the
	// current conversation is already empty.
	if s.evalClick(ctx, newChatJS) {
		if err := s.waitComposer(ctx); err != nil {
			return err
		}
	}

	return s.clearComposer(ctx)
}

// SetPrompt injects text into the composer via synthetic input events, the
// only reliable way to populate a contenteditable across UI revisions.
func (s *rodSession) SetPrompt(ctx context.Context, text string) error {
	el, err := s.composer(ctx)
	if err != nil {
		return err
	}
	_, err = el.Eval(`(text) => {
		this.focus();
		this.innerText = text;
		this.dispatchEvent(new InputEvent('input', {bubbles: true}));
		this.dispatchEvent(new Event('change', {bubbles: true}));
	}`, text)
	if err != nil {
		return fmt.Errorf("set prompt: %w", err)
	}
	return nil
}

// AttachFiles resolves the paths and hands them to the page's file input.
// Rod sets files over CDP, so the upload menu never needs to open; the
// click is attempted only to force the input into the DOM on builds that
// mount it lazily.
func (s *rodSession) AttachFiles(ctx context.Context, paths []string) error {
	abs := make([]string, len(paths))
	for i, p := range paths {
		a, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", p, err)
		}
		abs[i] = a
	}

	s.evalClick(ctx, openUploadMenuJS)

	el, err := s.page.Context(ctx).Timeout(s.cfg.ReadyTimeout).Element(`input[type="file"]`)
	if err != nil {
		return fmt.Errorf("file input: %w", err)
	}
	if err := el.SetFiles(abs); err != nil {
		return fmt.Errorf("set files: %w", err)
	}

	// Give the UI a moment to materialize attachment chips. Missing chips
	// are not an error; the submit stage fails loudly if nothing attached.
	s.waitTrue(ctx, 3*time.Second, hasAttachmentJS)
	return nil
}

// Submit clicks the send button once it is enabled, falling back to
// Ctrl+Enter if no clickable button is found within the window.
func (s *rodSession) Submit(ctx context.Context) error {
	if s.waitTrue(ctx, 5*time.Second, clickSendJS) {
		return nil
	}

	kb := s.page.Keyboard
	if err := kb.Press(input.ControlLeft); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	defer kb.Release(input.ControlLeft)
	if err := kb.Type(input.Enter); err != nil {
		return fmt.Errorf("submit: %w", err)
	}
	return nil
}

// AwaitAnswer polls the latest response node until its text stabilizes or
// the answer window closes. The node's HTML is converted to markdown so
// code-block answers survive formatting; plain text is the fallback.
func (s *rodSession) AwaitAnswer(ctx context.Context) (string, error) {
	read := func() (string, error) {
		res, err := s.page.Eval(readAnswerJS)
		if err != nil {
			return "", err
		}
		html := res.Value.Get("html").Str()
		if md := s.htmlToMarkdown(html); md != "" {
			return md, nil
		}
		return strings.TrimSpace(res.Value.Get("text").Str()), nil
	}
	return stabilize(ctx, read, s.cfg.AnswerTimeout, s.cfg.StablePause)
}

// Snapshot writes a screenshot and the sanitized page HTML for human
// diagnosis of a failed attempt.
func (s *rodSession) Snapshot(dir, id string) error {
	if s.page == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	var firstErr error
	if img, err := s.page.Screenshot(false, nil); err == nil {
		if err := os.WriteFile(filepath.Join(dir, id+".png"), img, 0o644); err != nil {
			firstErr = err
		}
	} else {
		firstErr = err
	}

	if html, err := s.page.HTML(); err == nil {
		clean := s.sanitizer.Sanitize(html)
		if err := os.WriteFile(filepath.Join(dir, id+".html"), []byte(clean), 0o644); err != nil && firstErr == nil {
			firstErr = err
		}
	} else if firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// Close shuts down the page and the browser.
func (s *rodSession) Close() error {
	if s.page != nil {
		s.page.Close()
		s.page = nil
	}
	return s.mgr.Close()
}

// --- helpers ---

func (s *rodSession) onAgentPage() bool {
	info, err := s.page.Info()
	if err != nil {
		return false
	}
	want, err := url.Parse(s.cfg.AgentURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(info.URL, want.Scheme+"://"+want.Host)
}

func (s *rodSession) composer(ctx context.Context) (*rod.Element, error) {
	el, err := s.page.Context(ctx).Timeout(s.cfg.ReadyTimeout).ElementX(composerXPath)
	if err != nil {
		return nil, ErrNoComposer
	}
	return el, nil
}

func (s *rodSession) waitComposer(ctx context.Context) error {
	_, err := s.composer(ctx)
	return err
}

func (s *rodSession) clearComposer(ctx context.Context) error {
	el, err := s.composer(ctx)
	if err != nil {
		return err
	}
	_, err = el.Eval(`() => {
		this.innerText = '';
		this.dispatchEvent(new InputEvent('input', {bubbles: true}));
	}`)
	return err
}

// dismissInterstitials clicks consent/continue overlays for a bounded
// window. Zero clicks is the normal case on a warmed profile.
func (s *rodSession) dismissInterstitials(ctx context.Context) {
	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if !s.evalClick(ctx, dismissJS) {
			return
		}
		if err := sleepCtx(ctx, 300*time.Millisecond); err != nil {
			return
		}
	}
}

// evalClick runs a JS snippet that clicks at most one element and reports
// whether it did.
func (s *rodSession) evalClick(ctx context.Context, js string) bool {
	res, err := s.page.Context(ctx).Eval(js)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// waitTrue re-runs a boolean JS snippet until it reports true or the
// window closes.
func (s *rodSession) waitTrue(ctx context.Context, window time.Duration, js string) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if s.evalClick(ctx, js) {
			return true
		}
		if err := sleepCtx(ctx, 200*time.Millisecond); err != nil {
			return false
		}
	}
	return false
}

// --- JS snippets (the bounded selector surface) ---

const dismissJS = `() => {
	const pats = ['Aceptar y continuar', 'Aceptar todo', 'Acepto', 'Accept all', 'I agree', 'Continue'];
	for (const b of document.querySelectorAll('button')) {
		const t = (b.innerText || b.getAttribute('aria-label') || '').trim();
		if (pats.some(p => t.includes(p))) { b.click(); return true; }
	}
	return false;
}`

const newChatJS = `() => {
	const el = document.querySelector(
		'a[aria-label*="New chat"], button[aria-label*="New chat"],' +
		'a[aria-label*="Nueva conversación"], button[aria-label*="Nueva conversación"]');
	if (el) { el.click(); return true; }
	return false;
}`

const openUploadMenuJS = `() => {
	const el = document.querySelector(
		'button[aria-label*="upload"], button[aria-label*="archivo"],' +
		'button[aria-label*="Abrir menú de subida"]');
	if (el) { el.click(); return true; }
	return false;
}`

const hasAttachmentJS = `() => {
	return !!document.querySelector('[class*="attachment"], [class*="chip"], [aria-label*="file"]');
}`

const clickSendJS = `() => {
	const el = document.querySelector(
		'button[aria-label*="Send"]:not([disabled]):not([aria-disabled="true"]),' +
		'button[aria-label*="Enviar"]:not([disabled]):not([aria-disabled="true"])');
	if (el) { el.click(); return true; }
	return false;
}`

const readAnswerJS = `() => {
	const codes = document.querySelectorAll('message-content code');
	if (codes.length) {
		const el = codes[codes.length - 1];
		return {html: el.outerHTML || '', text: el.innerText || ''};
	}
	const msgs = document.querySelectorAll('message-content');
	if (msgs.length) {
		const el = msgs[msgs.length - 1];
		return {html: el.innerHTML || '', text: el.innerText || ''};
	}
	return {html: '', text: ''};
}`

func (s *rodSession) htmlToMarkdown(html string) string {
	if strings.TrimSpace(html) == "" {
		return ""
	}
	out, err := s.conv.ConvertString(html)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(out)
}
