package i18n

import (
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Embedded(t *testing.T) {
	manager, err := Load("en")
	require.NoError(t, err)

	assert.Equal(t, []string{"ar", "en"}, manager.Languages())

	en := manager.Translator("en")
	assert.Equal(t, "English", en.T("locale.name"))
	assert.Equal(t, "العربية", manager.Translator("ar").T("locale.name"))
	assert.Equal(t, "No", en.T("chat.no"))
}

func TestTranslator_Fallbacks(t *testing.T) {
	fsys := fstest.MapFS{
		"tr/en.yaml": {Data: []byte("en:\n  a:\n    b: hello\n  only_en: x\n")},
		"tr/ar.yaml": {Data: []byte("ar:\n  a:\n    b: marhaba\n")},
	}

	manager, err := LoadFS(fsys, "tr", "en")
	require.NoError(t, err)

	ar := manager.Translator("AR")
	assert.Equal(t, "ar", ar.Lang())
	assert.Equal(t, "marhaba", ar.T("a.b"))
	assert.Equal(t, "x", ar.T("only_en"))
	assert.Equal(t, "missing.key", ar.T("missing.key"))

	unknown := manager.Translator("fr")
	assert.Equal(t, "en", unknown.Lang())
}

func TestLoadFS_Errors(t *testing.T) {
	_, err := LoadFS(fstest.MapFS{"x/readme.txt": {Data: []byte("hi")}}, "x", "en")
	assert.Error(t, err)

	_, err = LoadFS(fstest.MapFS{"x/ar.yaml": {Data: []byte("ar:\n  k: v\n")}}, "x", "en")
	assert.Error(t, err)
}

func TestFormatAndList(t *testing.T) {
	manager, err := Load("en")
	require.NoError(t, err)
	en := manager.Translator("en")

	assert.Equal(t, "Here are the top centers for Spa:", Format(en, "chat.stores_intro", map[string]string{"Name": "Spa"}))
	assert.Contains(t, List(en, "chat.greeting_keywords"), "hello")
	assert.Nil(t, List(en, "chat.unknown"))
}
