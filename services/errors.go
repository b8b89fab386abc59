package services

import "errors"

// ストア操作が返す既知のエラー。ワークフロー側で errors.Is で判別して
// ユーザー向けメッセージに変換する。
var (
	ErrAlreadyLinked = errors.New("account already linked")
	ErrNotLinked     = errors.New("account not linked")
	ErrDuplicateCode = errors.New("code already exists")
	ErrConflict      = errors.New("conflicting write")
)
