package users

import "github.com/labstack/echo/v4"

type Handler interface {
	AuthTest() echo.HandlerFunc
	Add() echo.HandlerFunc
	Remove() echo.HandlerFunc
	Rekey() echo.HandlerFunc
	List() echo.HandlerFunc
}
