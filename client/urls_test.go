package client

import "testing"

func TestAPIURLs(t *testing.T) {
	urls := APIURLs("https://staging.exp.host/")

	if got, want := urls.NativeModules("50.0.0"), "https://staging.exp.host/--/api/v2/sdks/50.0.0/native-modules"; got != want {
		t.Errorf("NativeModules = %q, want %q", got, want)
	}
	if got, want := urls.NotifyAlive(), "https://staging.exp.host/--/api/v2/development-sessions/notify-alive"; got != want {
		t.Errorf("NotifyAlive = %q, want %q", got, want)
	}
}

func TestAPIURLsDefault(t *testing.T) {
	if got := APIURLs("").Origin; got != DefaultAPIURL {
		t.Errorf("Origin = %q, want %q", got, DefaultAPIURL)
	}
}

func TestBaseURLsOverrides(t *testing.T) {
	urls := &BaseURLs{
		Origin:          "https://exp.host",
		NativeModulesFn: func(v string) string { return "http://mirror/" + v },
	}
	if got := urls.NativeModules("49.0.0"); got != "http://mirror/49.0.0" {
		t.Errorf("NativeModules = %q", got)
	}
	if got := urls.NotifyAlive(); got != "https://exp.host/--/api/v2/development-sessions/notify-alive" {
		t.Errorf("NotifyAlive = %q", got)
	}
}
