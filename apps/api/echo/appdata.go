package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/rekodi/core/appdata"
)

type appDataApi struct {
	svc      *appdata.Service
	validate *validator.Validate
}

// registerAppDataAPI mounts the app data store twice: under /student the
// owner is forced to the student the token resolves to, and under
// /app-data/:student_id the owner comes from the path. The latter only
// checks that the owner exists; any verified identity may read and write
// another student's namespace. Deliberate: consuming apps act on behalf of
// students with their own service identities, and the store holds app
// preferences rather than records. Tighten here if that changes.
func registerAppDataAPI(app *echo.Echo, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := appDataApi{
		svc:      deps.AppDataSvc,
		validate: deps.Validate,
	}

	sg := app.Group("/student/app-data", jwt, studentMiddleware(deps.SchoolSvc))
	sg.POST("", api.store)
	sg.GET("/:app_key", api.listByApp)
	sg.DELETE("/:app_key", api.destroyByApp)
	sg.GET("/:app_key/:data_key", api.retrieve)
	sg.PUT("/:app_key/:data_key", api.update)
	sg.DELETE("/:app_key/:data_key", api.destroy)

	xg := app.Group("/app-data/:student_id", jwt, ownerMiddleware(deps.SchoolSvc))
	xg.POST("", api.store)
	xg.GET("/:app_key", api.listByApp)
	xg.DELETE("/:app_key", api.destroyByApp)
	xg.GET("/:app_key/:data_key", api.retrieve)
	xg.PUT("/:app_key/:data_key", api.update)
	xg.DELETE("/:app_key/:data_key", api.destroy)
}

// Handlers

func (api *appDataApi) store(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var data appdata.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errBindingFailed
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Put(ctx.Request().Context(), owner, data)
	if err != nil {
		return errors.Wrap(err, "storing app data")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *appDataApi) listByApp(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	recs, err := api.svc.ListByApp(ctx.Request().Context(), owner, ctx.Param("app_key"))
	if err != nil {
		return errors.Wrap(err, "listing app data")
	}
	if recs == nil {
		recs = []appdata.Record{}
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *appDataApi) retrieve(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	rec, err := api.svc.Get(ctx.Request().Context(), owner, ctx.Param("app_key"), ctx.Param("data_key"))
	if err != nil {
		return errors.Wrap(err, "getting app data")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *appDataApi) update(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	var data appdata.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errBindingFailed
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	rec, err := api.svc.Update(ctx.Request().Context(), owner, ctx.Param("app_key"), ctx.Param("data_key"), data)
	if err != nil {
		return errors.Wrap(err, "updating app data")
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *appDataApi) destroy(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	if err := api.svc.Delete(ctx.Request().Context(), owner, ctx.Param("app_key"), ctx.Param("data_key")); err != nil {
		return errors.Wrap(err, "deleting app data")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "App data deleted successfully"})
}

func (api *appDataApi) destroyByApp(ctx echo.Context) error {
	owner, err := getContextOwner(ctx)
	if err != nil {
		return err
	}

	cnt, err := api.svc.DeleteByApp(ctx.Request().Context(), owner, ctx.Param("app_key"))
	if err != nil {
		return errors.Wrap(err, "deleting app data records")
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"message":       "App data deleted successfully",
		"deleted_count": cnt,
	})
}
