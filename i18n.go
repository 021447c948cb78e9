package jsonschema

import (
	"embed"
	"fmt"
	"sync"

	"github.com/kaptinlin/go-i18n"
)

//go:embed locales/*.json
var localesFS embed.FS

var (
	i18nBundle     *i18n.I18n
	i18nBundleOnce sync.Once
)

// GetI18n returns the package-wide internationalization bundle, loading the
// embedded locale files on first use. The embedded locales are a compile-time
// constant, so a load failure here is a programming error, not a runtime
// condition callers need to handle.
func GetI18n() *i18n.I18n {
	i18nBundleOnce.Do(func() {
		bundle := i18n.NewBundle(
			i18n.WithDefaultLocale("en"),
			i18n.WithLocales("en", "zh-Hans"),
		)
		if err := bundle.LoadFS(localesFS, "locales/*.json"); err != nil {
			panic(fmt.Sprintf("jsonschema: failed to load embedded locales: %v", err))
		}
		i18nBundle = bundle
	})
	return i18nBundle
}
