//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default 預設任務：顯示說明
func Default() {
	fmt.Println("twstockbot 建置系統")
	fmt.Println("==================")
	fmt.Println("可用任務:")
	fmt.Println("  mage build     - 建置所有執行檔")
	fmt.Println("  mage test      - 執行所有測試")
	fmt.Println("  mage testShort - 快速測試（跳過耗時案例）")
	fmt.Println("  mage lint      - 程式碼檢查")
	fmt.Println("  mage coverage  - 產生測試覆蓋率報告")
	fmt.Println("  mage runBot    - 啟動 Discord 機器人")
	fmt.Println("  mage runAPI    - 啟動 HTTP API 服務")
	fmt.Println("  mage clean     - 清理建置產物")
}

// Build 建置所有執行檔
func Build() error {
	mg.Deps(Clean)

	targets := []struct {
		name string
		path string
	}{
		{"bot", "./cmd/bot"},
		{"api_server", "./cmd/api_server"},
	}

	fmt.Println("🚀 開始建置 twstockbot...")
	if err := os.MkdirAll("dist", 0755); err != nil {
		return err
	}

	for _, target := range targets {
		fmt.Printf("📦 建置 %s...\n", target.name)
		output := filepath.Join("./dist", target.name)
		if runtime.GOOS == "windows" {
			output += ".exe"
		}

		cmd := exec.Command("go", "build", "-o", output, target.path)
		cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
		if out, err := cmd.CombinedOutput(); err != nil {
			return fmt.Errorf("建置 %s 失敗: %v\n輸出: %s", target.name, err, string(out))
		}
	}

	fmt.Println("🎉 建置完成!")
	return nil
}

// Test 執行所有測試
func Test() error {
	fmt.Println("🧪 執行測試...")
	start := time.Now()
	if err := sh.RunV("go", "test", "-race", "-timeout=5m", "./..."); err != nil {
		return err
	}
	fmt.Printf("✅ 測試完成，耗時 %v\n", time.Since(start).Round(time.Second))
	return nil
}

// TestShort 快速測試，跳過耗時案例
func TestShort() error {
	return sh.RunV("go", "test", "-short", "./...")
}

// Lint 程式碼檢查
func Lint() error {
	fmt.Println("🔍 執行程式碼檢查...")
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return err
	}
	if _, err := exec.LookPath("golangci-lint"); err == nil {
		return sh.RunV("golangci-lint", "run", "./...")
	}
	fmt.Println("未安裝 golangci-lint，僅執行 go vet")
	return nil
}

// Coverage 產生測試覆蓋率報告
func Coverage() error {
	fmt.Println("📊 產生覆蓋率報告...")
	if err := sh.RunV("go", "test", "-coverprofile=coverage.out", "./..."); err != nil {
		return err
	}
	if err := sh.RunV("go", "tool", "cover", "-html=coverage.out", "-o", "coverage.html"); err != nil {
		return err
	}
	fmt.Println("報告已輸出至 coverage.html")
	return nil
}

// RunBot 啟動 Discord 機器人
func RunBot() error {
	return sh.RunV("go", "run", "./cmd/bot")
}

// RunAPI 啟動 HTTP API 服務
func RunAPI() error {
	return sh.RunV("go", "run", "./cmd/api_server")
}

// Clean 清理建置產物
func Clean() error {
	for _, p := range []string{"dist", "coverage.out", "coverage.html"} {
		if err := os.RemoveAll(p); err != nil {
			return err
		}
	}
	return nil
}
