package domain

import "fmt"

// ModelFitError reports a fit that did not converge or an inadmissible configuration.
type ModelFitError struct {
	Config    ModelConfig
	SeriesLen int
	Err       error
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("ARIMA%s fit on %d observations failed: %v", e.Config, e.SeriesLen, e.Err)
}

func (e *ModelFitError) Unwrap() error {
	return e.Err
}

// EmptyGridError is returned when there is no grid row to evaluate or select from.
type EmptyGridError struct{}

func (e *EmptyGridError) Error() string {
	return "evaluation grid is empty"
}

// MissingParamsError is returned when no stored configuration exists for a currency.
type MissingParamsError struct {
	Currency Currency
}

func (e *MissingParamsError) Error() string {
	return fmt.Sprintf("no ARIMA parameters stored for %s", e.Currency)
}

// DataGapError reports a series too short to fit the requested orders and horizon.
type DataGapError struct {
	Currency Currency
	Config   ModelConfig
	Horizon  int
	Have     int
	Need     int
}

func (e *DataGapError) Error() string {
	return fmt.Sprintf("%s series has %d usable observations, ARIMA%s with horizon %d needs at least %d",
		e.Currency, e.Have, e.Config, e.Horizon, e.Need)
}
