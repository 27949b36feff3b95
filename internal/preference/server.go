package preference

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	_ "modernc.org/sqlite"

	"github.com/nao1215/notifier/pkg/contract"
	"github.com/nao1215/notifier/pkg/middleware"
)

// Server はユーザー通知設定サービスのHTTPサーバー。
type Server struct {
	// router はGinのHTTPルーター。
	router *gin.Engine
	// port はサーバーのリッスンポート。
	port string
	// queries はユーザー通知設定テーブルへのクエリ実行オブジェクト。
	queries *Queries
	// db はSQLiteデータベース接続。
	db *sql.DB
}

// NewServer は新しいユーザー通知設定サーバーを生成する。
// SQLiteデータベースの初期化とスキーマ作成を行う。
func NewServer(port string) (*Server, error) {
	sqlDB, err := sql.Open("sqlite", "/data/preference.db?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗: %w", err)
	}

	if err := initSchema(sqlDB); err != nil {
		return nil, fmt.Errorf("スキーマ初期化に失敗: %w", err)
	}

	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(gin.Logger())
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		router.Use(middleware.CORS(strings.Split(origins, ",")))
	}

	s := &Server{
		router:  router,
		port:    port,
		queries: NewQueries(sqlDB),
		db:      sqlDB,
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
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "dev-secret-key"
	}

	api := s.router.Group("/api")
	{
		prefs := api.Group("/preferences")
		{
			// 通知設定の新規作成
			prefs.POST("", s.handleCreate())
			// 通知設定の取得
			prefs.GET("/:user_id", s.handleGet())
			// 通知設定の部分更新
			prefs.PATCH("/:user_id", s.handleUpdate())
			// 通知設定の削除
			prefs.DELETE("/:user_id", s.handleDelete())
		}

		// 内部API（通知サービスが配信判定のために呼び出す）
		internal := api.Group("/internal")
		internal.Use(middleware.JWTAuth(jwtSecret))
		{
			internal.GET("/preferences/:user_id", s.handleGet())
		}
	}

	// ヘルスチェック
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "preference"})
	})
}

// channelsPayload はチャネル許可設定のJSON構造。
type channelsPayload struct {
	// Email はメール配信の許可。
	Email bool `json:"email"`
	// SMS はSMS配信の許可。
	SMS bool `json:"sms"`
	// Push はプッシュ通知配信の許可。
	Push bool `json:"push"`
}

// preferencesPayload は通知種別・チャネル設定のJSON構造。
type preferencesPayload struct {
	// Marketing はマーケティング通知のオプトイン。
	Marketing bool `json:"marketing"`
	// Newsletter はニュースレター通知のオプトイン。
	Newsletter bool `json:"newsletter"`
	// Updates は更新情報通知のオプトイン。
	Updates bool `json:"updates"`
	// Frequency は通知のまとめ送り頻度。
	Frequency string `json:"frequency" binding:"required"`
	// Channels はチャネルごとの配信許可設定。
	Channels channelsPayload `json:"channels"`
}

// createRequest は通知設定作成リクエストのJSON構造。
type createRequest struct {
	// UserID は設定対象のユーザーID。
	UserID string `json:"userId" binding:"required"`
	// Email はユーザーのメールアドレス。
	Email string `json:"email" binding:"required,email"`
	// Preferences は通知種別・チャネル設定。
	Preferences preferencesPayload `json:"preferences" binding:"required"`
	// Timezone はユーザーのタイムゾーン。
	Timezone string `json:"timezone" binding:"required"`
}

// updateRequest は通知設定更新リクエストのJSON構造。指定されたフィールドのみ更新する。
type updateRequest struct {
	// Email はユーザーのメールアドレス。
	Email *string `json:"email"`
	// Preferences は通知種別・チャネル設定。指定時は設定全体を置き換える。
	Preferences *preferencesPayload `json:"preferences"`
	// Timezone はユーザーのタイムゾーン。
	Timezone *string `json:"timezone"`
}

// boolToInt は真偽値をSQLite格納用のINTEGERに変換する。
func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// toPreferenceResponse はDB行をレスポンス用の設定レコードに変換する。
func toPreferenceResponse(p UserPreference) contract.UserPreference {
	return contract.UserPreference{
		UserID: p.UserID,
		Email:  p.Email,
		Preferences: contract.PreferenceSettings{
			Marketing:  p.OptInMarketing != 0,
			Newsletter: p.OptInNewsletter != 0,
			Updates:    p.OptInUpdates != 0,
			Frequency:  contract.Frequency(p.Frequency),
			Channels: contract.ChannelPreferences{
				Email: p.ChannelEmail != 0,
				SMS:   p.ChannelSMS != 0,
				Push:  p.ChannelPush != 0,
			},
		},
		Timezone:  p.Timezone,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// handleCreate は通知設定を新規作成するハンドラ。
// 同一ユーザーの設定が既に存在する場合はエラーを返す。
func (s *Server) handleCreate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, contract.Error(fmt.Sprintf("Invalid request body: %v", err)))
			return
		}

		if _, err := contract.ParseFrequency(req.Preferences.Frequency); err != nil {
			c.JSON(http.StatusBadRequest, contract.Error("Frequency must be one of: daily, weekly, monthly, or never"))
			return
		}

		// 既存レコードの重複チェック（ユーザーごとに1件まで）
		if _, err := s.queries.GetPreferenceByUserID(c.Request.Context(), req.UserID); err == nil {
			c.JSON(http.StatusBadRequest, contract.Error("Preferences for this user already exist"))
			return
		} else if !errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の重複チェックエラー: %v", err)
			return
		}

		if err := s.queries.CreatePreference(c.Request.Context(), CreatePreferenceParams{
			UserID:          req.UserID,
			Email:           req.Email,
			OptInMarketing:  boolToInt(req.Preferences.Marketing),
			OptInNewsletter: boolToInt(req.Preferences.Newsletter),
			OptInUpdates:    boolToInt(req.Preferences.Updates),
			Frequency:       req.Preferences.Frequency,
			ChannelEmail:    boolToInt(req.Preferences.Channels.Email),
			ChannelSMS:      boolToInt(req.Preferences.Channels.SMS),
			ChannelPush:     boolToInt(req.Preferences.Channels.Push),
			Timezone:        req.Timezone,
		}); err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の作成エラー: %v", err)
			return
		}

		created, err := s.queries.GetPreferenceByUserID(c.Request.Context(), req.UserID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("作成済み通知設定の取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusCreated, contract.Success("User preferences created successfully", toPreferenceResponse(created)))
	}
}

// handleGet はユーザーIDで通知設定を取得するハンドラ。
// 公開APIと内部APIの両方から使用される。
func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")

		p, err := s.queries.GetPreferenceByUserID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, contract.Error("User preferences not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, contract.Success("User preferences found successfully", toPreferenceResponse(p)))
	}
}

// handleUpdate は通知設定を部分更新するハンドラ。
// リクエストで指定されたフィールドのみ既存レコードに上書きする。
func (s *Server) handleUpdate() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")

		var req updateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, contract.Error(fmt.Sprintf("Invalid request body: %v", err)))
			return
		}

		p, err := s.queries.GetPreferenceByUserID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, contract.Error("User preferences not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の取得エラー: %v", err)
			return
		}

		params := UpdatePreferenceParams{
			UserID:          p.UserID,
			Email:           p.Email,
			OptInMarketing:  p.OptInMarketing,
			OptInNewsletter: p.OptInNewsletter,
			OptInUpdates:    p.OptInUpdates,
			Frequency:       p.Frequency,
			ChannelEmail:    p.ChannelEmail,
			ChannelSMS:      p.ChannelSMS,
			ChannelPush:     p.ChannelPush,
			Timezone:        p.Timezone,
		}

		if req.Email != nil {
			params.Email = *req.Email
		}
		if req.Timezone != nil {
			params.Timezone = *req.Timezone
		}
		if req.Preferences != nil {
			if _, err := contract.ParseFrequency(req.Preferences.Frequency); err != nil {
				c.JSON(http.StatusBadRequest, contract.Error("Frequency must be one of: daily, weekly, monthly, or never"))
				return
			}
			params.OptInMarketing = boolToInt(req.Preferences.Marketing)
			params.OptInNewsletter = boolToInt(req.Preferences.Newsletter)
			params.OptInUpdates = boolToInt(req.Preferences.Updates)
			params.Frequency = req.Preferences.Frequency
			params.ChannelEmail = boolToInt(req.Preferences.Channels.Email)
			params.ChannelSMS = boolToInt(req.Preferences.Channels.SMS)
			params.ChannelPush = boolToInt(req.Preferences.Channels.Push)
		}

		if err := s.queries.UpdatePreference(c.Request.Context(), params); err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の更新エラー: %v", err)
			return
		}

		updated, err := s.queries.GetPreferenceByUserID(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("更新済み通知設定の取得エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, contract.Success("User preferences updated successfully", toPreferenceResponse(updated)))
	}
}

// handleDelete は通知設定を削除するハンドラ。
func (s *Server) handleDelete() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.Param("user_id")

		if _, err := s.queries.GetPreferenceByUserID(c.Request.Context(), userID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				c.JSON(http.StatusNotFound, contract.Error("User preferences not found"))
				return
			}
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の取得エラー: %v", err)
			return
		}

		if err := s.queries.DeletePreference(c.Request.Context(), userID); err != nil {
			c.JSON(http.StatusInternalServerError, contract.Error("An unexpected error occurred"))
			log.Printf("通知設定の削除エラー: %v", err)
			return
		}

		c.JSON(http.StatusOK, contract.Success("User preferences deleted successfully", nil))
	}
}
