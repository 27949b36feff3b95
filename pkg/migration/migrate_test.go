package migration

import (
	"database/sql"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

// setupTestDB はテスト用のインメモリSQLiteデータベースを生成する。
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("インメモリDBの作成に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestRun はマイグレーション適用のテスト。
func TestRun(t *testing.T) {
	t.Parallel()

	t.Run("マイグレーションがバージョン順に適用されること", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		fsys := fstest.MapFS{
			// 順序を検証するため、2番目のファイルは1番目のテーブルに依存させる
			"migrations/000002_add_index.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE INDEX idx_items_name ON items(name);`),
			},
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT NOT NULL);`),
			},
		}

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}

		// テーブルが作成されていること
		if _, err := db.Exec(`INSERT INTO items (name) VALUES ('test')`); err != nil {
			t.Errorf("itemsテーブルへの挿入に失敗: %v", err)
		}

		// 両バージョンが適用済みとして記録されていること
		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 2 {
			t.Errorf("適用済みバージョン数: got %d, want 2", count)
		}
	})

	t.Run("2回実行しても適用済みのマイグレーションはスキップされること", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY);`),
			},
		}

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("1回目のRun()でエラーが発生: %v", err)
		}
		// 再実行してもCREATE TABLEの重複エラーにならない
		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("2回目のRun()でエラーが発生: %v", err)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 1 {
			t.Errorf("適用済みバージョン数: got %d, want 1", count)
		}
	})

	t.Run("不正なSQLの場合はロールバックされ適用済みとして記録されないこと", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_broken.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABL broken;`),
			},
		}

		if err := Run(db, fsys, "migrations"); err == nil {
			t.Fatal("Run()がエラーを返すべきだが、nilが返った")
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 0 {
			t.Errorf("適用済みバージョン数: got %d, want 0", count)
		}
	})

	t.Run("up.sql以外のファイルは無視されること", func(t *testing.T) {
		t.Parallel()

		db := setupTestDB(t)
		fsys := fstest.MapFS{
			"migrations/000001_create_items.up.sql": &fstest.MapFile{
				Data: []byte(`CREATE TABLE items (id INTEGER PRIMARY KEY);`),
			},
			"migrations/000001_create_items.down.sql": &fstest.MapFile{
				Data: []byte(`DROP TABLE items;`),
			},
			"migrations/README.md": &fstest.MapFile{
				Data: []byte(`migration files`),
			},
		}

		if err := Run(db, fsys, "migrations"); err != nil {
			t.Fatalf("Run()でエラーが発生: %v", err)
		}

		var count int
		if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&count); err != nil {
			t.Fatalf("schema_migrationsの取得に失敗: %v", err)
		}
		if count != 1 {
			t.Errorf("適用済みバージョン数: got %d, want 1", count)
		}
	})
}
