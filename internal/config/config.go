package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// ErrCodeInputInvalid 表示输入目录参数缺失或不是已存在的目录。
	ErrCodeInputInvalid = "input_invalid"
	// ErrCodeOutputInvalid 表示输出目录参数缺失或不是已存在的目录。
	ErrCodeOutputInvalid = "output_invalid"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

// ConfigFileName 是可选配置文件名，固定从 cwd 读取。
const ConfigFileName = "mff.json"

// CLIArgs 只包含 CLI 暴露的入口参数，并保留"是否显式指定"的信息。
// 这能保证覆盖优先级可实现：例如 --no-color 必须能覆盖 config.no_color=false。
type CLIArgs struct {
	Input  string
	Output string

	Concurrency    int
	ConcurrencySet bool

	Report    bool
	ReportSet bool

	NoColor    bool
	NoColorSet bool
}

// FileConfig 对应 mff.json 的解析结构。文件整体可选，所有字段可选。
type FileConfig struct {
	Concurrency int      `json:"concurrency"`
	ExcludeDirs []string `json:"exclude_dirs"`
	NoColor     bool     `json:"no_color"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
//（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// Input / Output 均为 clean + absolute 的已存在目录。
	Input  string
	Output string

	Concurrency int
	ExcludeDirs []string
	Report      bool
	NoColor     bool
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeInputInvalid:
		return fmt.Sprintf("%s：%q 不是一个已存在的目录", e.Code, e.Path)
	case ErrCodeOutputInvalid:
		return fmt.Sprintf("%s：%q 不是一个已存在的目录", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取可选的 <cwd>/mff.json，然后与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：
// - input/output：仅 CLI（必填，必须是已存在目录）
// - concurrency：CLI > config > 默认（可用并行度 - 1，至少 1）
// - no_color：CLI > config > 默认 false
// - exclude_dirs / report：分别仅由 config / CLI 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, ConfigFileName)
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	input, err := requireDir(cwdAbs, cli.Input, ErrCodeInputInvalid)
	if err != nil {
		return EffectiveConfig{}, err
	}
	output, err := requireDir(cwdAbs, cli.Output, ErrCodeOutputInvalid)
	if err != nil {
		return EffectiveConfig{}, err
	}

	concurrency := DefaultConcurrency()
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	} else if fc.Concurrency != 0 {
		concurrency = fc.Concurrency
	}
	if concurrency < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("concurrency 必须 >= 1，实际是 %d", concurrency)}
	}

	noColor := fc.NoColor
	if cli.NoColorSet {
		noColor = cli.NoColor
	}

	return EffectiveConfig{
		Input:       input,
		Output:      output,
		Concurrency: concurrency,
		ExcludeDirs: append([]string(nil), fc.ExcludeDirs...),
		Report:      cli.ReportSet && cli.Report,
		NoColor:     noColor,
	}, nil
}

// DefaultConcurrency 返回默认 worker 数：可用并行度 - 1，至少 1。
// 留一个核给扫描/收集与系统本身。
func DefaultConcurrency() int {
	n := runtime.NumCPU() - 1
	if n < 1 {
		n = 1
	}
	return n
}

func requireDir(cwdAbs, p, code string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", &Error{Code: code, Path: p, Err: os.ErrNotExist}
	}
	abs := absCleanFrom(cwdAbs, p)
	fi, err := os.Stat(abs)
	if err != nil || !fi.IsDir() {
		return "", &Error{Code: code, Path: p, Err: err}
	}
	return abs, nil
}

func readFileConfig(cfgPath string) (FileConfig, bool, error) {
	b, err := os.ReadFile(cfgPath)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}

	var fc FileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

func absCleanFrom(cwdAbs, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Clean(filepath.Join(cwdAbs, p))
}
