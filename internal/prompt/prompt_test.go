package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender(t *testing.T) {
	got := Render("你是一位拥有 {years} 年经验的{title}", map[string]string{
		"years": "10",
		"title": "心理咨询师",
	})
	assert.Equal(t, "你是一位拥有 10 年经验的心理咨询师", got)
}

func TestRenderKeepsUnknownVariables(t *testing.T) {
	got := Render("{known} 和 {unknown}", map[string]string{"known": "已填"})
	assert.Equal(t, "已填 和 {unknown}", got)
}

func TestRenderEmptyVariables(t *testing.T) {
	template := "原样返回 {var}"
	assert.Equal(t, template, Render(template, nil))
}

func TestRenderSystem(t *testing.T) {
	got := RenderSystem(map[string]string{
		"experience_years": "10",
		"specialty":        "情绪疏导",
		"crisis_hotline":   "400-161-9995",
	})

	assert.True(t, strings.Contains(got, "10 年以上临床经验"))
	assert.True(t, strings.Contains(got, "擅长情绪疏导"))
	assert.True(t, strings.Contains(got, "400-161-9995"))
	assert.False(t, strings.Contains(got, "{experience_years}"))
}
