//go:build gl

package main

import _ "github.com/gogpu/texgen/backend/opengl" // register the gl backend
