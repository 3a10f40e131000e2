package errors_test

import (
	"fmt"
	"regexp"

	"github.com/keboola/cluster-resolver/internal/pkg/utils/errors"
)

func ExampleNew() {
	fmt.Println(errors.New("some error"))
	// output:
	// some error
}

func ExampleErrorf() {
	err := errors.Errorf("enhanced error message: %w", errors.New("original error"))
	fmt.Println(err)
	// output:
	// enhanced error message: original error
}

func ExampleWrap() {
	err := errors.Wrap(errors.New("original error"), "new error message")
	fmt.Println(err)
	fmt.Println(errors.Format(err, errors.FormatWithUnwrap()))
	// output:
	// new error message
	// new error message (*errors.wrappedError):
	// - original error
}

func ExampleFormatWithStack() {
	err := errors.New("original error")
	re := regexp.MustCompile(`\[.*/internal`)
	fmt.Println(re.ReplaceAllString(errors.Format(err, errors.FormatWithStack()), "["))
	// output:
	// original error [/pkg/utils/errors/example_test.go:34]
}

func ExamplePrefixError() {
	err := errors.PrefixError(errors.New("connection refused"), `cannot fetch artifact "a.b.C"`)
	fmt.Println(err)
	// output:
	// cannot fetch artifact "a.b.C": connection refused
}

func Example_multiError() {
	errs := errors.NewMultiError()
	errs.Append(errors.New("foo 1"))
	errs.Append(errors.New("foo 2"))

	sub := errs.AppendNested(errors.New("some sub error 1"))
	sub.Append(errors.New("foo 3"))
	sub.Append(errors.New("foo 4"))

	errs.AppendWithPrefixf(errors.New("nested error"), "some %s", "prefix")
	errs.Append(errors.Wrapf(errors.New("original error"), "new error %s", "message"))

	fmt.Println(errs.Error())
	fmt.Println()
	fmt.Println(errors.Format(errs, errors.FormatWithUnwrap()))
	// output:
	// - foo 1
	// - foo 2
	// - some sub error 1:
	//   - foo 3
	//   - foo 4
	// - some prefix: nested error
	// - new error message
	//
	// - foo 1
	// - foo 2
	// - some sub error 1:
	//   - foo 3
	//   - foo 4
	// - some prefix: nested error
	// - new error message (*errors.wrappedError):
	//   - original error
}
