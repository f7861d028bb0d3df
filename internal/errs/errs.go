// Package errs 错误分类：输入校验、交易提交、数据查询
package errs

import (
	"errors"
	"fmt"
)

// ValidationError 用户输入不合法，在任何网络调用之前返回，只作用于单个字段
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// SubmissionError 钱包拒绝或交易提交失败，不重试
type SubmissionError struct {
	Op  string
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("提交交易 %s 失败: %v", e.Op, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// QueryError 索引服务或链上读取失败（网络错误或数据格式错误）
type QueryError struct {
	Source string // indexer / ledger
	Op     string
	Err    error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s 查询 %s 失败: %v", e.Source, e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsValidation 判断是否为输入校验错误
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsSubmission 判断是否为交易提交错误
func IsSubmission(err error) bool {
	var s *SubmissionError
	return errors.As(err, &s)
}

// IsQuery 判断是否为查询错误
func IsQuery(err error) bool {
	var q *QueryError
	return errors.As(err, &q)
}
