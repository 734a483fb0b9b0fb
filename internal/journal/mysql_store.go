package journal

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"strings"
	"time"

	xerrors "OpenMCP-DeFi/internal/errors"
	"github.com/go-sql-driver/mysql"
)

// MySQLStore 使用 MySQL 记录交易流水。
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore 创建一个新的 MySQLStore。
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "MySQL DSN 不能为空")
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "连接 MySQL 失败")
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(10 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "无法连接到 MySQL")
	}

	store := &MySQLStore{db: db}
	if err := store.runMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化交易流水库失败")
	}
	return store, nil
}

// Save 插入新的流水记录。
func (s *MySQLStore) Save(ctx context.Context, entry *Entry) error {
	if entry == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "entry 不能为空")
	}
	if strings.TrimSpace(entry.ID) == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "流水 ID 不能为空")
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = time.Now().Unix()
	}

	const stmt = `INSERT INTO trade_entries
        (id, kind, chain, account, counterparty, amount_wei, minimum_out, tx_hash, gas_used, status, error_code, last_error, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, stmt,
		entry.ID,
		entry.Kind,
		entry.Chain,
		entry.Account,
		entry.Counterparty,
		entry.AmountWei,
		entry.MinimumOut,
		entry.TxHash,
		entry.GasUsed,
		entry.Status,
		entry.ErrorCode,
		entry.LastError,
		entry.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrEntryConflict
		}
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "插入流水失败")
	}
	return nil
}

// Get 查询指定流水。
func (s *MySQLStore) Get(ctx context.Context, id string) (*Entry, error) {
	const stmt = `SELECT id, kind, chain, account, counterparty, amount_wei, minimum_out, tx_hash, gas_used, status, error_code, last_error, created_at
        FROM trade_entries WHERE id = ?`

	row := s.db.QueryRowContext(ctx, stmt, id)

	var entry Entry
	if err := row.Scan(
		&entry.ID,
		&entry.Kind,
		&entry.Chain,
		&entry.Account,
		&entry.Counterparty,
		&entry.AmountWei,
		&entry.MinimumOut,
		&entry.TxHash,
		&entry.GasUsed,
		&entry.Status,
		&entry.ErrorCode,
		&entry.LastError,
		&entry.CreatedAt,
	); err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrEntryNotFound
		}
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询流水失败")
	}
	return &entry, nil
}

// List 按创建时间倒序返回最近的流水。
func (s *MySQLStore) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	const stmt = `SELECT id, kind, chain, account, counterparty, amount_wei, minimum_out, tx_hash, gas_used, status, error_code, last_error, created_at
        FROM trade_entries ORDER BY created_at DESC, id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, stmt, limit)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "查询流水列表失败")
	}
	defer rows.Close()

	entries := make([]*Entry, 0, limit)
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(
			&entry.ID,
			&entry.Kind,
			&entry.Chain,
			&entry.Account,
			&entry.Counterparty,
			&entry.AmountWei,
			&entry.MinimumOut,
			&entry.TxHash,
			&entry.GasUsed,
			&entry.Status,
			&entry.ErrorCode,
			&entry.LastError,
			&entry.CreatedAt,
		); err != nil {
			return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "解析流水记录失败")
		}
		entryCopy := entry
		entries = append(entries, &entryCopy)
	}
	if err := rows.Err(); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "遍历流水失败")
	}
	return entries, nil
}

// Close 关闭底层数据库连接。
func (s *MySQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var _ Store = (*MySQLStore)(nil)
