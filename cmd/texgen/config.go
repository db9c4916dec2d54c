package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/viper"

	"github.com/gogpu/texgen"
)

// applyParams copies every configured <map>.<name> value into t. Select
// parameters accept an option name or its index.
func applyParams(v *viper.Viper, t *texgen.Tuner) error {
	for _, mt := range texgen.MapTypes() {
		for _, spec := range texgen.Schema(mt) {
			key := mt.String() + "." + spec.Name
			if !v.IsSet(key) {
				continue
			}
			raw := v.GetString(key)
			if _, ok := spec.OptionIndex(raw); ok {
				if err := t.SetOption(mt, spec.Name, raw); err != nil {
					return err
				}
				continue
			}
			f, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return fmt.Errorf("%s: %q is not a number", key, raw)
			}
			if err := t.SetParameter(mt, spec.Name, f); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return nil
}
