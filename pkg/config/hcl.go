// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "prdbackup.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	// Expose a couple of well-known values to expressions
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"default_prefix": cty.StringVal(DefaultPrefix),
		},
	}

	// Define HCL schema
	type hclConfig struct {
		Source         *string  `hcl:"source,optional"`
		Target         *string  `hcl:"target,optional"`
		Move           *bool    `hcl:"move,optional"`
		Convert        *bool    `hcl:"convert,optional"`
		Prefix         *string  `hcl:"prefix,optional"`
		IgnorePatterns []string `hcl:"ignore_patterns,optional"`
		VerifyChecksum *bool    `hcl:"verify_checksum,optional"`
		Lock           *bool    `hcl:"lock,optional"`
	}

	var hclCfg hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &hclCfg)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	// Convert to model
	cfg := Default()
	setIf(&cfg.Source, hclCfg.Source)
	setIf(&cfg.Target, hclCfg.Target)
	setIf(&cfg.Move, hclCfg.Move)
	setIf(&cfg.Convert, hclCfg.Convert)
	setIf(&cfg.Prefix, hclCfg.Prefix)
	setIf(&cfg.VerifyChecksum, hclCfg.VerifyChecksum)
	setIf(&cfg.Lock, hclCfg.Lock)
	cfg.IgnorePatterns = hclCfg.IgnorePatterns

	return cfg, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
