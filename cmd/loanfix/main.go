// loanfix 借阅数据运维命令
//
// 用法：
//
//	loanfix                       # 统计缺失的借出/归还时间（不修改）
//	loanfix --apply               # 已归还缺returned_at的，用approved_at补齐
//	loanfix --apply --use-now     # 另外把仍缺失的时间戳设为当前时间
//	loanfix --grant-staff a@b.ve  # 授予馆员身份
//	loanfix --revoke-staff a@b.ve # 撤销馆员身份
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/xiebiao/library/internal/application/maintenance"
	"github.com/xiebiao/library/internal/infrastructure/config"
	"github.com/xiebiao/library/internal/infrastructure/persistence/mysql"
	"github.com/xiebiao/library/pkg/logger"
)

type options struct {
	configPath  string
	apply       bool
	useNow      bool
	grantStaff  string
	revokeStaff string
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径（默认config/config.yaml）")
	pflag.BoolVar(&opts.apply, "apply", false, "执行修复（默认只统计）")
	pflag.BoolVar(&opts.useNow, "use-now", false, "与--apply一起使用：仍缺失的时间戳设为当前时间")
	pflag.StringVar(&opts.grantStaff, "grant-staff", "", "授予馆员身份的用户邮箱")
	pflag.StringVar(&opts.revokeStaff, "revoke-staff", "", "撤销馆员身份的用户邮箱")
	pflag.Parse()

	if err := run(opts); err != nil {
		slog.Error("执行失败", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.useNow && !opts.apply {
		return fmt.Errorf("--use-now需要与--apply一起使用")
	}
	if opts.grantStaff != "" && opts.revokeStaff != "" {
		return fmt.Errorf("--grant-staff与--revoke-staff不能同时使用")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.LoadFrom(opts.configPath)
	if err != nil {
		return err
	}
	// 运维命令不做表结构迁移
	cfg.Database.AutoMigrate = false
	cfg.Server.Mode = "release"

	log, closer, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: "stderr"})
	if err != nil {
		return err
	}
	defer closer.Close()
	slog.SetDefault(log)

	db, err := mysql.NewDB(cfg)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	switch {
	case opts.grantStaff != "":
		_, err = maintenance.NewStaffUseCase(mysql.NewUserRepository(db)).Execute(ctx, opts.grantStaff, true)
		return err
	case opts.revokeStaff != "":
		_, err = maintenance.NewStaffUseCase(mysql.NewUserRepository(db)).Execute(ctx, opts.revokeStaff, false)
		return err
	}

	report, err := maintenance.NewBackfillUseCase(mysql.NewTxManager(db), mysql.NewLoanMaintenanceRepository(db)).
		Execute(ctx, maintenance.BackfillOptions{Apply: opts.apply, UseNow: opts.useNow})
	if err != nil {
		return err
	}

	fmt.Printf("approved_at为空: %d -> %d\n", report.Before.ApprovedAt, report.After.ApprovedAt)
	fmt.Printf("已归还但returned_at为空: %d -> %d\n", report.Before.ReturnedAt, report.After.ReturnedAt)
	if opts.apply {
		fmt.Printf("returned_at取approved_at: %d\n", report.ReturnedFromApproved)
		fmt.Printf("approved_at取当前时间: %d\n", report.ApprovedSetToNow)
		fmt.Printf("returned_at取当前时间: %d\n", report.ReturnedSetToNow)
	}
	return nil
}
