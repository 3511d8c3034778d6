package async_test

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/adamwoolhether/easyhttp/client/async"
	"github.com/adamwoolhether/easyhttp/client/config"
)

func ExampleStart() {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	}))
	defer ts.Close()

	opts, err := config.Parse(config.Raw{"method": "GET"}, nil)
	if err != nil {
		fmt.Println(err)
		return
	}

	req, err := async.Start(ts.URL, opts, async.Env{})
	if err != nil {
		fmt.Println(err)
		return
	}
	defer req.Dispose()

	resp, err := req.Response()
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(resp.StatusCode, string(resp.Body))
	// Output: 200 pong
}
