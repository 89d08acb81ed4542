package jobs

import "github.com/labstack/echo/v4"

type Handler interface {
	New() echo.HandlerFunc
	Get() echo.HandlerFunc
	List() echo.HandlerFunc
	Pause() echo.HandlerFunc
	Resume() echo.HandlerFunc
	Status() echo.HandlerFunc
	NextTask() echo.HandlerFunc
	SubmitResult() echo.HandlerFunc
	ReportProgress() echo.HandlerFunc
}
