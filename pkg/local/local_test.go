package local

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTextSet(t *testing.T) {
	set := NewSet("Bot %s created", NewTrans(Rus, "Бот %s создан"))

	assert.Equal(t, "Bot %s created", set.Text(Eng))
	assert.Equal(t, "Бот %s создан", set.Text(Rus))
	assert.Equal(t, "Bot HRBot created", set.Format(Eng, "HRBot"))
	assert.Equal(t, "Бот HRBot создан", set.Format(Rus, "HRBot"))
	assert.Equal(t, "Bot HRBot created", set.Format(Language("de"), "HRBot"))
}

func TestParseLanguage(t *testing.T) {
	assert.Equal(t, Rus, ParseLanguage("ru"))
	assert.Equal(t, Rus, ParseLanguage(" RU-ru "))
	assert.Equal(t, Eng, ParseLanguage("en-US"))
	assert.Equal(t, Eng, ParseLanguage(""))
	assert.Equal(t, Eng, ParseLanguage("de"))
}

func TestParseLanguage_AcceptLanguageHeader(t *testing.T) {
	assert.Equal(t, Rus, ParseLanguage("ru-RU,ru;q=0.9,en;q=0.8"))
	assert.Equal(t, Rus, ParseLanguage("ru,en"))
	assert.Equal(t, Eng, ParseLanguage("en;q=0.9"))
}
