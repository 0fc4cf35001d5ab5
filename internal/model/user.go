// Package model はTodoサービスのドメインモデルとAPIエラーを定義する。
package model

import "time"

// User は登録済みアカウント。Emailは正規化済み（小文字・前後空白なし）の値を保持する。
// PasswordHashはbcrypt出力そのものであり、レスポンスへのシリアライズは禁止。
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}
