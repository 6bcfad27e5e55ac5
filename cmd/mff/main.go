package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/John-Robertt/MFF/internal/app/run"
	"github.com/John-Robertt/MFF/internal/config"
	"github.com/John-Robertt/MFF/internal/domain"
	"github.com/John-Robertt/MFF/internal/infra/fsx"
	"github.com/John-Robertt/MFF/internal/metadata"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(1)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	started := time.Now()

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 1
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, ra)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if eff.NoColor {
		color.NoColor = true
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newProgressUI(progressW)
	} else {
		// 非交互环境不画进度条，但单文件警告仍然要落到 stderr。
		obs = warnOnlyUI{w: os.Stderr}
	}

	rep, err := run.ExecuteWithObserver(context.Background(), eff, metadata.Exif{}, obs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		var ese *run.EmptySourceError
		if errors.As(err, &ese) {
			return 2
		}
		return 1
	}

	if eff.Report {
		if err := writeReportFile(eff.Output, rep); err != nil {
			fmt.Fprintf(os.Stderr, "写入 %s 失败：%v\n", reportFileName, err)
			emitSummary(os.Stdout, rep)
			return 1
		}
	}

	emitSummary(os.Stdout, rep)
	emitElapsed(os.Stdout, time.Since(started))

	if len(rep.Failed) > 0 {
		return 1
	}
	return 0
}

func parseRunArgs(args []string) (config.CLIArgs, error) {
	ra := config.CLIArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "-i" || a == "--input":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			ra.Input = args[i]
		case strings.HasPrefix(a, "--input="):
			ra.Input = strings.TrimPrefix(a, "--input=")
		case a == "-o" || a == "--output":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("%s 需要一个值", a)
			}
			i++
			ra.Output = args[i]
		case strings.HasPrefix(a, "--output="):
			ra.Output = strings.TrimPrefix(a, "--output=")
		case a == "--concurrency":
			if i+1 >= len(args) {
				return config.CLIArgs{}, fmt.Errorf("--concurrency 需要一个值")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--concurrency 必须是整数，实际是 %q", args[i])
			}
			ra.Concurrency = n
			ra.ConcurrencySet = true
		case strings.HasPrefix(a, "--concurrency="):
			v := strings.TrimPrefix(a, "--concurrency=")
			n, err := strconv.Atoi(v)
			if err != nil {
				return config.CLIArgs{}, fmt.Errorf("--concurrency 必须是整数，实际是 %q", v)
			}
			ra.Concurrency = n
			ra.ConcurrencySet = true
		case a == "--report":
			ra.Report = true
			ra.ReportSet = true
		case a == "--no-color":
			ra.NoColor = true
			ra.NoColorSet = true
		default:
			return config.CLIArgs{}, fmt.Errorf("未知参数 %q", a)
		}
	}

	if strings.TrimSpace(ra.Input) == "" {
		return config.CLIArgs{}, fmt.Errorf("缺少必填参数 -i/--input")
	}
	if strings.TrimSpace(ra.Output) == "" {
		return config.CLIArgs{}, fmt.Errorf("缺少必填参数 -o/--output")
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mff run -i <源目录> -o <目的目录> [--concurrency N] [--report] [--no-color]

命令：
  run    按创建时间整理媒体文件（移动 + 重命名 + 去重）

使用 "mff run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  mff run -i <源目录> -o <目的目录> [--concurrency N] [--report] [--no-color]

参数：
  -i, --input    源目录（必填，必须已存在）
  -o, --output   目的目录（必填，必须已存在）
  --concurrency  worker 数（默认：可用并行度 - 1，至少 1）
  --report       运行结束后在目的目录写入 mff_report.json
  --no-color     关闭彩色输出
  -h, --help     显示帮助

退出码：
  1  参数/目录无效
  2  源目录为空或没有支持的媒体文件

注意：本工具对源文件执行移动/删除（不是复制）；中途中断会使源目录
处于部分迁出状态。
`)
}

// emitSummary 输出最终统计（人类可读；颜色风格沿袭原工具的终端摘要）。
func emitSummary(w io.Writer, rep domain.StatsReport) {
	bold := color.New(color.Bold)
	header := color.New(color.FgBlue, color.Bold)
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	bold.Fprintln(w, strings.Repeat("-", 20))
	header.Fprintln(w, "批量整理媒体文件已完成，统计信息如下:")
	green.Fprintf(w, "媒体文件总数: %d\n", rep.Total)
	green.Fprintf(w, "图片文件总数: %d\n", rep.Images)
	green.Fprintf(w, "视频文件总数: %d\n", rep.Videos)
	green.Fprintf(w, "媒体文件重名数: %d\n", rep.NameDuplicated)
	green.Fprintf(w, "媒体文件重复删除数: %d\n", rep.DuplicateRemoved)

	if len(rep.NameDuplicatedPaths) > 0 {
		bold.Fprintln(w, strings.Repeat("-", 20))
		header.Fprintln(w, "重名改序号落位的文件:")
		for _, p := range rep.NameDuplicatedPaths {
			yellow.Fprintln(w, p)
		}
	}

	if len(rep.DuplicateRemovedPaths) > 0 {
		bold.Fprintln(w, strings.Repeat("-", 20))
		header.Fprintln(w, "内容重复被删除的源文件:")
		for _, p := range rep.DuplicateRemovedPaths {
			red.Fprintln(w, p)
		}
	}

	if len(rep.Failed) > 0 {
		bold.Fprintln(w, strings.Repeat("-", 20))
		header.Fprintln(w, "处理失败的文件:")
		for _, f := range rep.Failed {
			red.Fprintf(w, "%s: %s\n", f.Src, f.ErrorMsg)
		}
	}
}

func emitElapsed(w io.Writer, d time.Duration) {
	bold := color.New(color.Bold)
	blue := color.New(color.FgBlue)
	bold.Fprintln(w, strings.Repeat("-", 20))
	blue.Fprintf(w, "耗费时间: %.1fs\n", d.Seconds())
}

const reportFileName = "mff_report.json"

func writeReportFile(outDir string, rep domain.StatsReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(outDir, reportFileName, b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// warnOnlyUI 是非交互环境的 Observer：只输出警告，其余事件静默
// （失败文件已经由最终摘要的失败列表覆盖）。
type warnOnlyUI struct {
	w io.Writer
}

var _ run.Observer = warnOnlyUI{}

func (u warnOnlyUI) OnStart(config.EffectiveConfig) {}

func (u warnOnlyUI) OnPhaseDone(string, map[string]any, time.Duration) {}

func (u warnOnlyUI) OnWarn(f domain.MediaFile, err error) {
	fmt.Fprintf(u.w, "WARN %s: %v\n", f.RelPath, err)
}

func (u warnOnlyUI) OnFileDone(int, int, domain.MediaFile, domain.PlacementOutcome, error, time.Duration) {
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout 的摘要）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
