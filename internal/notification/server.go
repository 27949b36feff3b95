package notification

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/nao1215/notifier/pkg/contract"
	"github.com/nao1215/notifier/pkg/httpclient"
	"github.com/nao1215/notifier/pkg/middleware"
)

// Server は通知配信サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries は通知ログテーブルへのクエリ実行オブジェクト。
	queries *Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
	// preferenceClient は設定サービスへの通信クライアント。
	preferenceClient *httpclient.Client
	// sender は通知の送信を行う実装。
	sender Sender
}

// NewServer は新しい通知配信サーバーを生成する。
// SQLiteデータベースの初期化と設定サービスへのクライアント構築を行う。
func NewServer(port string) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", "/data/notification.db?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	preferenceURL := os.Getenv("PREFERENCE_URL")
	if preferenceURL == "" {
		preferenceURL = "http://localhost:8081"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	// 設定サービスの内部APIはJWT認証で保護されているため、
	// サービストークンを生成してクライアントに設定する
	token, err := middleware.GenerateServiceJWT(jwtSecret, "notification")
	if err != nil {
		return nil, fmt.Errorf("サービストークンの生成に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		router.Use(middleware.CORS(strings.Split(origins, ",")))
	}

	s := &Server{
		router:           router,
		port:             port,
		queries:          NewQueries(sqlDB),
		db:               sqlDB,
		preferenceClient: httpclient.NewWithToken(preferenceURL, token),
		sender:           NewSimulatedSender(),
	}
	s.setupRoutes()

	return s, nil
}

// Run はHTTPサーバーを起動する。
func (s *Server) Run() error {
	return s.router.Run(fmt.Sprintf(":%s", s.port))
}

// setupRoutes はAPIルーティングを設定する。
func (s *Server) setupRoutes() {
	api := s.router.Group("/api")
	{
		notifications := api.Group("/notifications")
		{
			// 通知の送信
			notifications.POST("/send", s.handleSend())
			// 種別×ステータス別の集計
			notifications.GET("/stats", s.handleStats())
			// ユーザーごとの通知ログ一覧
			notifications.GET("/:user_id/logs", s.handleLogs())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "notification"})
	})
}

// contentPayload は通知内容のJSON構造。
type contentPayload struct {
	// Subject は通知の件名。
	Subject string `json:"subject" binding:"required"`
	// Body は通知の本文。
	Body string `json:"body" binding:"required"`
}

// sendRequest は通知送信リクエストのJSON構造。
type sendRequest struct {
	// UserID は通知先のユーザーID。
	UserID string `json:"userId" binding:"required"`
	// Type は通知の種別。
	Type string `json:"type" binding:"required"`
	// Channel は配信チャネル。
	Channel string `json:"channel" binding:"required"`
	// Content は通知の内容。
	Content contentPayload `json:"content" binding:"required"`
}

// preferenceEnvelope は設定サービスのレスポンスに対応する構造体。
type preferenceEnvelope struct {
	// Status はレスポンスの種別。
	Status string `json:"status"`
	// Message は説明メッセージ。
	Message string `json:"message"`
	// Data は設定レコード本体。
	Data contract.UserPreference `json:"data"`
}

// logResponse は通知ログのJSONレスポンス構造。
type logResponse struct {
	// ID は通知試行の一意識別子。
	ID string `json:"id"`
	// UserID は通知先のユーザーID。
	UserID string `json:"userId"`
	// Type は通知の種別。
	Type string `json:"type"`
	// Channel は配信チャネル。
	Channel string `json:"channel"`
	// Status は送信結果。
	Status string `json:"status"`
	// SentAt は送信に成功した日時（RFC3339形式）。失敗時は省略。
	SentAt string `json:"sentAt,omitempty"`
	// FailureReason は送信失敗の理由。成功時は省略。
	FailureReason string `json:"failureReason,omitempty"`
	// Metadata は監査用に保存した通知内容。
	Metadata Content `json:"metadata"`
	// CreatedAt はログの作成日時（RFC3339形式）。
	CreatedAt string `json:"createdAt"`
}

// toLogResponse はDB行をJSONレスポンスに変換する。
func toLogResponse(l NotificationLog) logResponse {
	resp := logResponse{
		ID:        l.ID,
		UserID:    l.UserID,
		Type:      l.Type,
		Channel:   l.Channel,
		Status:    l.Status,
		CreatedAt: l.CreatedAt.Format(time.RFC3339),
	}
	if l.SentAt.Valid {
		resp.SentAt = l.SentAt.Time.Format(time.RFC3339)
	}
	if l.FailureReason.Valid {
		resp.FailureReason = l.FailureReason.String
	}
	// metadataはJSON文字列として保存しているため、レスポンスでは構造体に戻す
	if err := json.Unmarshal([]byte(l.Metadata), &resp.Metadata); err != nil {
		log.Printf("通知ログmetadataのデシリアライズに失敗: id=%s, %v", l.ID, err)
	}
	return resp
}

// handleSend は通知の配信を処理するハンドラ。
// ユーザー設定の取得、配信可否の判定、送信の試行、通知ログへの記録を順に行う。
// 設定による拒否はエラーではなくfailレスポンスとして返し、ログには記録しない。
// 送信を試行した通知は成否にかかわらず必ずログに記録する。
func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, contract.Error(fmt.Sprintf("Invalid request body: %v", err)))
			return
		}

		nType, err := contract.ParseType(req.Type)
		if err != nil {
			c.JSON(http.StatusBadRequest, contract.Error(fmt.Sprintf("Invalid notification type: %s", req.Type)))
			return
		}

		channel, err := contract.ParseChannel(req.Channel)
		if err != nil {
			c.JSON(http.StatusBadRequest, contract.Error(fmt.Sprintf("Invalid notification channel: %s", req.Channel)))
			return
		}

		// ユーザーの通知設定を設定サービスから取得する
		var prefResp preferenceEnvelope
		if err := s.preferenceClient.GetJSON(c.Request.Context(), "/api/internal/preferences/"+req.UserID, &prefResp); err != nil {
			var statusErr *httpclient.StatusError
			if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
				c.JSON(http.StatusBadRequest, contract.Error("User preferences not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の取得エラー: user_id=%s, %v", req.UserID, err)
			return
		}

		// 配信可否の判定。拒否された通知は送信もログ記録も行わない
		switch evaluateConsent(prefResp.Data.Preferences, nType, channel) {
		case consentDeniedByType:
			c.JSON(http.StatusOK, contract.Fail(fmt.Sprintf("User has opted out of %s notifications.", nType)))
			return
		case consentDeniedByChannel:
			c.JSON(http.StatusOK, contract.Fail(fmt.Sprintf("User does not allow notifications via %s.", channel)))
			return
		case consentAllowed:
			// 送信処理に進む
		}

		content := Content{Subject: req.Content.Subject, Body: req.Content.Body}
		sendErr := s.sender.Send(c.Request.Context(), channel, content)

		// 試行した送信は成否にかかわらずログに記録する
		metadata, err := json.Marshal(content)
		if err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知内容のシリアライズに失敗: %v", err)
			return
		}

		now := time.Now().UTC()
		logID := uuid.New().String()
		params := CreateNotificationLogParams{
			ID:        logID,
			UserID:    req.UserID,
			Type:      string(nType),
			Channel:   string(channel),
			Status:    string(contract.StatusSent),
			SentAt:    sql.NullTime{Time: now, Valid: true},
			Metadata:  string(metadata),
			CreatedAt: now,
		}
		if sendErr != nil {
			params.Status = string(contract.StatusFailed)
			params.SentAt = sql.NullTime{}
			params.FailureReason = sql.NullString{String: sendErr.Error(), Valid: true}
		}

		if err := s.queries.CreateNotificationLog(c.Request.Context(), params); err != nil {
			if errors.Is(err, ErrInvalidLog) {
				c.JSON(http.StatusBadRequest, contract.Error("Invalid notification log data"))
				return
			}
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知ログの記録エラー: %v", err)
			return
		}

		if sendErr != nil {
			// 送信失敗は正常な業務上の結果として扱い、ログIDは返さない
			c.JSON(http.StatusOK, contract.Fail("Notification failed to send"))
			return
		}

		c.JSON(http.StatusOK, contract.Success("Notification sent successfully", gin.H{
			"success": true,
			"message": "Notification sent successfully",
			"logId":   logID,
		}))
	}
}

// handleLogs はユーザーごとの通知ログ一覧を返すハンドラ。
// ログは作成日時の降順で返し、存在しない場合は空配列を返す。
func (s *Server) handleLogs() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")

		logs, err := s.queries.ListNotificationLogsByUserID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知ログ一覧の取得エラー: user_id=%s, %v", userID, err)
			return
		}

		responses := make([]logResponse, 0, len(logs))
		for _, l := range logs {
			responses = append(responses, toLogResponse(l))
		}

		c.JSON(http.StatusOK, contract.Success("Logs fetched successfully", responses))
	}
}

// handleStats は全通知ログの種別×ステータス別の集計を返すハンドラ。
// キーは "<type>_<status>"（例: "marketing_sent"）で、件数0の組み合わせは含まれない。
func (s *Server) handleStats() gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, err := s.queries.CountLogsByTypeAndStatus(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知ログ集計エラー: %v", err)
			return
		}

		stats := make(map[string]int64, len(counts))
		for _, count := range counts {
			stats[fmt.Sprintf("%s_%s", count.Type, count.Status)] = count.Count
		}

		c.JSON(http.StatusOK, contract.Success("Stats fetched successfully", stats))
	}
}
