package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/brightfield/sitesurvey/internal/client/api"
	"github.com/brightfield/sitesurvey/internal/client/repositories/settings"
)

// getSimpleText and getSecret are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getSecret = GetSecret

// register enrolls this device with the backend. The access code is issued
// out of band by the site operator; on success the device id and API token
// are persisted so later runs start authenticated.
func (a *App) register(ctx context.Context) {
	name, err := getSimpleText(a.reader, "Enter device name", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	code, err := getSecret("Enter access code", os.Stdout)
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	deviceID, token, err := a.client.RegisterDevice(ctx, name, string(code))
	if err != nil {
		fmt.Println(err.Error())
		return
	}

	if err := a.store.Settings().Set(ctx, settings.KeyDeviceID, []byte(deviceID)); err != nil {
		fmt.Println(err.Error())
		return
	}
	if err := a.store.Settings().Set(ctx, settings.KeyDeviceToken, []byte(token)); err != nil {
		fmt.Println(err.Error())
		return
	}

	a.deviceID = deviceID
	a.client.SetTokenSource(api.StaticToken(token))

	fmt.Println("Device registered!")
}
