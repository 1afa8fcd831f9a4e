package email

import "testing"

func TestHTMLToText(t *testing.T) {
	input := `<div>Hello <b>World</b></div><script>var x = 1;</script><style>.a{color:red}</style>
	<p>Tom &amp; Jerry</p><br/>`

	got := HTMLToText(input)
	expected := "Hello World Tom & Jerry"
	if got != expected {
		t.Errorf("Expected '%s', got '%s'", expected, got)
	}
}

func TestHTMLToTextPlainInput(t *testing.T) {
	got := HTMLToText("  just   some\n\ttext  ")
	if got != "just some text" {
		t.Errorf("Expected 'just some text', got '%s'", got)
	}
}
