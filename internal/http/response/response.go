package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	StatusCode int         `json:"status_code"` // 业务状态码
	Msg        string      `json:"msg"`         // 提示消息
	Data       interface{} `json:"data"`        // 数据内容
}

// PageResponse 分页响应结构
type PageResponse struct {
	StatusCode int         `json:"status_code"`
	Msg        string      `json:"msg"`
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination 分页信息
type Pagination struct {
	Page      int   `json:"page"`
	PageSize  int   `json:"page_size"`
	Total     int64 `json:"total"`
	TotalPage int64 `json:"total_page"`
}

// BuildPagination 根据总数计算分页信息
func BuildPagination(page, pageSize int, total int64) Pagination {
	totalPage := int64(0)
	if pageSize > 0 {
		totalPage = (total + int64(pageSize) - 1) / int64(pageSize)
	}
	return Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}

func write(c *gin.Context, httpStatus, code int, msg string, data interface{}) {
	c.JSON(httpStatus, Response{StatusCode: code, Msg: msg, Data: data})
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, CodeOK, "success", data)
}

// Created 创建成功响应，业务码仍为 0
func Created(c *gin.Context, data interface{}) {
	write(c, http.StatusCreated, CodeOK, "success", data)
}

// SuccessWithMsg 成功响应（自定义消息）
func SuccessWithMsg(c *gin.Context, msg string, data interface{}) {
	write(c, http.StatusOK, CodeOK, msg, data)
}

// SuccessWithPage 分页成功响应
func SuccessWithPage(c *gin.Context, data interface{}, pagination Pagination) {
	c.JSON(http.StatusOK, PageResponse{
		StatusCode: CodeOK,
		Msg:        "success",
		Data:       data,
		Pagination: pagination,
	})
}

// Error 错误响应，HTTP 状态与业务码保持一致，data 中附带 request_id
func Error(c *gin.Context, statusCode int, msg string) {
	var data interface{}
	if id := requestID(c); id != "" {
		data = gin.H{"request_id": id}
	}
	write(c, HTTPStatus(statusCode), statusCode, msg, data)
}

// HTTPStatus 业务码映射为 HTTP 状态码
func HTTPStatus(code int) int {
	switch code {
	case CodeOK:
		return http.StatusOK
	case CodeBadRequest, CodeUnauthorized, CodeForbidden, CodeNotFound, CodeConflict,
		CodeUnprocessable, CodeTooManyRequests, CodeInternal, CodeServiceUnavailable:
		return code
	default:
		return http.StatusInternalServerError
	}
}

func requestID(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString("request_id")
}
