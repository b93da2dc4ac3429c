package db

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"

	"studenthub-backend/internal/models"
)

// InitDB 连接 MySQL 并自动迁移表结构
func InitDB(dsn string, log *zap.Logger) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql dsn is empty")
	}

	conn, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}
	log.Info("Connected to MySQL")

	// 自动迁移表结构
	err = conn.AutoMigrate(
		&models.User{},
		&models.MoodEntry{},
		&models.JournalEntry{},
		&models.QuizResult{},
		&models.UserProgress{},
		&models.CrisisAlert{},
		&models.Appointment{},
		&models.ForumThread{},
		&models.ForumReply{},
		&models.Settings{},
		&models.ChatRecord{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return conn, nil
}
