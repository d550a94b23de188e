// Package translation resolves translation keys against YAML catalogs laid
// out as <dir>/<domain>.<locale>.yaml, e.g. translations/messages.pl.yaml.
package translation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Translator is a catalog-backed notification.Translator.
type Translator struct {
	mu             sync.RWMutex
	catalogs       map[string]map[string]string // "<domain>|<locale>" -> key -> text
	fallbackLocale string
	logger         *slog.Logger
}

// New creates an empty Translator. fallbackLocale is consulted after the
// requested locale and its base language.
func New(fallbackLocale string, logger *slog.Logger) *Translator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Translator{
		catalogs:       make(map[string]map[string]string),
		fallbackLocale: fallbackLocale,
		logger:         logger,
	}
}

// LoadDir reads every *.yaml / *.yml catalog in dir. A missing directory
// yields an empty translator, not an error.
func LoadDir(dir, fallbackLocale string, logger *slog.Logger) (*Translator, error) {
	t := New(fallbackLocale, logger)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return nil, fmt.Errorf("reading translations dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		domain, locale, ok := splitCatalogName(strings.TrimSuffix(e.Name(), ext))
		if !ok {
			t.logger.Warn("skipping translation file with unexpected name", "file", e.Name())
			continue
		}
		if err := t.loadFile(filepath.Join(dir, e.Name()), domain, locale); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// splitCatalogName turns "messages+intl-icu.pl" into ("messages", "pl").
func splitCatalogName(name string) (domain, locale string, ok bool) {
	i := strings.LastIndex(name, ".")
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	domain, locale = name[:i], name[i+1:]
	domain, _, _ = strings.Cut(domain, "+")
	return domain, locale, true
}

func (t *Translator) loadFile(path, domain, locale string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is from the configured translations dir
	if err != nil {
		return fmt.Errorf("reading catalog %q: %w", path, err)
	}
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("parsing catalog %q: %w", path, err)
	}
	messages := make(map[string]string)
	flatten("", raw, messages)
	t.AddMessages(domain, locale, messages)
	return nil
}

// flatten turns nested YAML maps into dotted keys.
func flatten(prefix string, in map[string]any, out map[string]string) {
	for k, v := range in {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case nil:
			out[key] = ""
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// AddMessages merges messages into the catalog for domain and locale.
func (t *Translator) AddMessages(domain, locale string, messages map[string]string) {
	id := catalogID(domain, canonicalLocale(locale))
	t.mu.Lock()
	defer t.mu.Unlock()
	cat, ok := t.catalogs[id]
	if !ok {
		cat = make(map[string]string, len(messages))
		t.catalogs[id] = cat
	}
	for k, v := range messages {
		cat[k] = v
	}
}

// Translate returns the translation of key for locale with params
// substituted. Unknown keys resolve to the key itself.
func (t *Translator) Translate(key string, params map[string]string, domain, locale string) string {
	if domain == "" {
		domain = "messages"
	}
	text := key
	t.mu.RLock()
	for _, loc := range t.fallbackChain(locale) {
		if msg, ok := t.catalogs[catalogID(domain, loc)][key]; ok {
			text = msg
			break
		}
	}
	t.mu.RUnlock()
	return t.substitute(text, params)
}

// fallbackChain lists the locales to try: the exact tag, its base language,
// then the fallback locale.
func (t *Translator) fallbackChain(locale string) []string {
	chain := make([]string, 0, 3)
	add := func(l string) {
		if l == "" {
			return
		}
		for _, c := range chain {
			if c == l {
				return
			}
		}
		chain = append(chain, l)
	}
	canonical := canonicalLocale(locale)
	add(canonical)
	if tag, err := language.Parse(canonical); err == nil {
		if base, conf := tag.Base(); conf != language.No {
			add(base.String())
		}
	}
	add(canonicalLocale(t.fallbackLocale))
	return chain
}

// canonicalLocale maps "pl_PL" and "pl-pl" to "pl-PL". Unparseable values
// are returned trimmed.
func canonicalLocale(locale string) string {
	locale = strings.TrimSpace(strings.ReplaceAll(locale, "_", "-"))
	if locale == "" {
		return ""
	}
	tag, err := language.Parse(locale)
	if err != nil {
		return locale
	}
	return tag.String()
}

func catalogID(domain, locale string) string { return domain + "|" + locale }

// substitute replaces parameter keys literally. Longer keys win when keys
// overlap.
func (t *Translator) substitute(text string, params map[string]string) string {
	if len(params) == 0 {
		return text
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		if malformedPlaceholder(k) {
			t.logger.Warn("malformed translation parameter", "parameter", k, "text", text)
			if k == "" {
				continue
			}
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	pairs := make([]string, 0, len(keys)*2)
	for _, k := range keys {
		pairs = append(pairs, k, params[k])
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// malformedPlaceholder reports keys that open a %...% or {...} placeholder
// without closing it.
func malformedPlaceholder(k string) bool {
	switch {
	case k == "":
		return true
	case strings.HasPrefix(k, "%"):
		return len(k) < 3 || !strings.HasSuffix(k, "%")
	case strings.HasPrefix(k, "{"):
		return len(k) < 3 || !strings.HasSuffix(k, "}")
	}
	return false
}
