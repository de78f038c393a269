// Package prompt 加载并渲染系统提示词模板
// 模板语法为 {variable} 形式的纯字符串替换
package prompt

import (
	_ "embed"
	"strings"
)

//go:embed templates/system-message.tmpl
var systemTemplate string

// Render 用变量表渲染模板，未提供的变量原样保留
func Render(template string, variables map[string]string) string {
	if len(variables) == 0 {
		return template
	}
	pairs := make([]string, 0, len(variables)*2)
	for name, value := range variables {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// RenderSystem 渲染内置的系统提示词模板
func RenderSystem(variables map[string]string) string {
	return Render(systemTemplate, variables)
}
