// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package kernel

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed shaders/*.wgsl
var shaders embed.FS

// ShaderFile is the name of the embedded WGSL template.
const ShaderFile = "shaders/transform.wgsl"

// EntryPoint is the compute entry point of the shader.
const EntryPoint = "main"

var shaderTemplate = template.Must(template.ParseFS(shaders, ShaderFile))

// Shader returns the WGSL source of the transform compute shader
// with the given workgroup (group) size.
func Shader(groupSize int) (string, error) {
	if groupSize <= 0 {
		return "", fmt.Errorf("kernel.Shader: group size must be positive, got %d", groupSize)
	}
	var sb strings.Builder
	err := shaderTemplate.Execute(&sb, struct{ GroupSize int }{groupSize})
	if err != nil {
		return "", err
	}
	return sb.String(), nil
}
