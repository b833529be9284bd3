// Command contactbook はロール制御付き連絡先APIサーバーを起動する。
//
// サブコマンド:
//
//	serve        HTTPサーバーを起動する（既定）
//	migrate      スキーマとデータのマイグレーションのみ実行する
//	healthcheck  起動中のサーバーの/healthを確認する
package main

import (
	"log/slog"
	"os"

	"github.com/hitoshi/contactbook/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		slog.Error("contactbook exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
