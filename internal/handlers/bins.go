package handlers

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/yujinliee/wastewise/internal/auth"
	"github.com/yujinliee/wastewise/internal/bins"
	"github.com/yujinliee/wastewise/internal/db"

	"github.com/labstack/echo/v4"
)

func ListBins(c echo.Context) error {
	list, err := bins.GetService().List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to list bins"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"bins": list})
}

// StreamBins pushes the bin list over SSE after every collection change.
func StreamBins(c echo.Context) error {
	updates := make(chan []bins.Bin, 1)
	unsubscribe, err := bins.GetService().Subscribe(c.Request().Context(), func(list []bins.Bin) {
		// Keep only the latest list if the client is slow; never block the
		// snapshot listener.
		select {
		case updates <- list:
		default:
			select {
			case <-updates:
			default:
			}
			select {
			case updates <- list:
			default:
			}
		}
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to subscribe to bins"})
	}
	defer unsubscribe()

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for {
		select {
		case <-c.Request().Context().Done():
			return nil
		case list := <-updates:
			data, err := json.Marshal(map[string]interface{}{"bins": list})
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func CreateBin(c echo.Context) error {
	var req bins.CreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if err := auth.Validate.Struct(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Label, location and type are required"})
	}

	id, err := bins.GetService().Create(c.Request().Context(), &req)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to create bin"})
	}
	return c.JSON(http.StatusCreated, map[string]string{"id": id})
}

func UpdateBin(c echo.Context) error {
	var req bins.UpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	err := bins.GetService().Update(c.Request().Context(), c.Param("id"), &req)
	return binMutationResult(c, err, "Failed to update bin")
}

func DeleteBin(c echo.Context) error {
	err := bins.GetService().Delete(c.Request().Context(), c.Param("id"))
	return binMutationResult(c, err, "Failed to delete bin")
}

func MarkBinEmptied(c echo.Context) error {
	err := bins.GetService().MarkEmptied(c.Request().Context(), c.Param("id"))
	return binMutationResult(c, err, "Failed to mark bin emptied")
}

type DeviceKeyRequest struct {
	DeviceKey string `json:"device_key"`
}

// RegisterBinDeviceKey stores the KMS-encrypted credential a bin device will
// report with.
func RegisterBinDeviceKey(c echo.Context) error {
	binID := c.Param("id")
	if _, err := bins.GetService().Get(c.Request().Context(), binID); err != nil {
		return binMutationResult(c, err, "Failed to register device key")
	}

	var req DeviceKeyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.DeviceKey == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Device key is required"})
	}

	if err := db.StoreBinDeviceKey(binID, req.DeviceKey); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to store device key"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Device key stored successfully"})
}

// ReportBinFill authenticates a device by its key and records the fill level.
func ReportBinFill(c echo.Context) error {
	binID := c.Param("id")

	deviceKey := c.Request().Header.Get("X-Device-Key")
	if deviceKey == "" {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Device key is required"})
	}

	storedKey, err := db.GetBinDeviceKey(binID)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unknown device"})
	}
	if subtle.ConstantTimeCompare([]byte(deviceKey), []byte(storedKey)) != 1 {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid device key"})
	}

	var req bins.ReportRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if req.FillLevel < 0 || req.FillLevel > 100 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Fill level must be between 0 and 100"})
	}

	if err := db.UpdateLastUsedDeviceKey(binID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to update device key usage"})
	}

	err = bins.GetService().ReportFill(c.Request().Context(), binID, req.FillLevel)
	return binMutationResult(c, err, "Failed to record fill report")
}

func binMutationResult(c echo.Context, err error, message string) error {
	if errors.Is(err, bins.ErrNotFound) {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Bin not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": message})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "ok"})
}
