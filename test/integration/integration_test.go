package integration_test

import (
	"bytes"
	"testing"

	"github.com/chazu/kestrel/session"
)

// ---------------------------------------------------------------------------
// Integration test helpers
// ---------------------------------------------------------------------------

// newSession returns a type-checking session writing to a buffer.
func newSession() (*session.Session, *bytes.Buffer) {
	var out bytes.Buffer
	return session.New(session.Options{Out: &out, TypeCheck: true}), &out
}

// runProgram runs source through the whole pipeline and returns its output.
func runProgram(t *testing.T, source string) string {
	t.Helper()
	s, out := newSession()
	if err := s.Run(source); err != nil {
		t.Fatalf("run failed: %v\ndiagnostics: %v", err, s.Diagnostics())
	}
	return out.String()
}

func expect(t *testing.T, source, want string) {
	t.Helper()
	if got := runProgram(t, source); got != want {
		t.Errorf("output:\n%s\nwant:\n%s", got, want)
	}
}

// ---------------------------------------------------------------------------
// 1. Recursion
// ---------------------------------------------------------------------------

func TestIntegrationE2E_Factorial(t *testing.T) {
	expect(t, `
fun fact(n) {
  if n <= 1 { return 1 }
  return n * fact(n - 1)
}
print(fact(0), fact(5), fact(10))
`, "1 120 3628800\n")
}

func TestIntegrationE2E_Fibonacci(t *testing.T) {
	expect(t, `
fun fib(n) {
  var a = 0
  var b = 1
  var i = 0
  while i < n {
    var next = a + b
    a = b
    b = next
    i = i + 1
  }
  return a
}
print(fib(1), fib(10), fib(20))
`, "1 55 6765\n")
}

func TestIntegrationE2E_RecursiveGCD(t *testing.T) {
	expect(t, `
fun gcd(a, b) {
  if b == 0 { return a }
  return gcd(b, a % b)
}
print(gcd(48, 18), gcd(17, 5))
`, "6 1\n")
}

func TestIntegrationE2E_MutualRecursion(t *testing.T) {
	expect(t, `
fun isEven(n) {
  if n == 0 { return true }
  return isOdd(n - 1)
}
fun isOdd(n) {
  if n == 0 { return false }
  return isEven(n - 1)
}
print(isEven(10), isOdd(7), isEven(3))
`, "true true false\n")
}

// ---------------------------------------------------------------------------
// 2. Classes
// ---------------------------------------------------------------------------

func TestIntegrationE2E_ClassWithMethods(t *testing.T) {
	expect(t, `
class Counter {
  init() { self.count = 0 }
  increment() {
    self.count = self.count + 1
    return self
  }
  get() { return self.count }
}
var c = Counter()
c.increment().increment().increment()
print(c.get())
`, "3\n")
}

func TestIntegrationE2E_Inheritance(t *testing.T) {
	expect(t, `
class Animal {
  init(name) { self.name = name }
  speak() { return self.name + " makes a sound" }
}
class Dog < Animal {
  speak() { return super.speak() + " (woof)" }
}
print(Animal("Cat").speak())
print(Dog("Rex").speak())
`, "Cat makes a sound\nRex makes a sound (woof)\n")
}

func TestIntegrationE2E_Mixins(t *testing.T) {
	expect(t, `
class Walker { walk() { return "walk" } }
class Swimmer { swim() { return "swim" } }
class Duck < Walker, Swimmer {
  describe() { return self.walk() + "+" + self.swim() }
}
print(Duck().describe())
`, "walk+swim\n")
}

func TestIntegrationE2E_OperatorOverloading(t *testing.T) {
	expect(t, `
class Vec {
  init(x, y) {
    self.x = x
    self.y = y
  }
  add(other) { return Vec(self.x + other.x, self.y + other.y) }
  equals(other) { return self.x == other.x and self.y == other.y }
  toString() { return "(" + self.x.toString() + ", " + self.y.toString() + ")" }
}
var v = Vec(1, 2) + Vec(3, 4)
print(v)
print(v == Vec(4, 6), v != Vec(4, 6))
`, "(4, 6)\ntrue false\n")
}

// ---------------------------------------------------------------------------
// 3. Functions
// ---------------------------------------------------------------------------

func TestIntegrationE2E_Closures(t *testing.T) {
	expect(t, `
fun makeCounter() {
  var n = 0
  fun inc() {
    n = n + 1
    return n
  }
  return inc
}
var c1 = makeCounter()
var c2 = makeCounter()
print(c1(), c1(), c2())
`, "1 2 1\n")
}

func TestIntegrationE2E_DefaultsAndVarargs(t *testing.T) {
	expect(t, `
fun greet(greeting = "Hello", ...names) {
  for n in names { print(greeting + ", " + n) }
}
greet("Hi", "Ann", "Bo")
fun area(width = 1, height = 1) { return width * height }
print(area(), area(2), area(height: 3))
`, "Hi, Ann\nHi, Bo\n1 2 3\n")
}

// ---------------------------------------------------------------------------
// 4. Collections and iteration
// ---------------------------------------------------------------------------

func TestIntegrationE2E_WordCount(t *testing.T) {
	expect(t, `
var counts = Map()
for w in "a b a c b a".split(" ") {
  if counts.has(w) {
    counts.set(w, counts.get(w) + 1)
  } else {
    counts.set(w, 1)
  }
}
print(counts)
`, "{a: 3, b: 2, c: 1}\n")
}

func TestIntegrationE2E_UserIterator(t *testing.T) {
	expect(t, `
class RangeIter {
  init(cur, hi) {
    self.cur = cur
    self.hi = hi
  }
  next() {
    if self.cur >= self.hi { return IteratorResult(nil, true) }
    var v = self.cur
    self.cur = self.cur + 1
    return IteratorResult(v, false)
  }
}
class Range {
  init(lo, hi) {
    self.lo = lo
    self.hi = hi
  }
  iterate() { return RangeIter(self.lo, self.hi) }
}
var total = 0
for i in Range(2, 5) { total = total + i }
print(total)
`, "9\n")
}

func TestIntegrationE2E_ListOps(t *testing.T) {
	expect(t, `
var xs = [3, 1, 2]
xs.add(5)
xs.set(0, 4)
var sum = 0
for x in xs { sum = sum + x }
print(xs, xs.length(), sum, xs.contains(5))
print(xs.pop(), xs)
`, "[4, 1, 2, 5] 4 12 true\n5 [4, 1, 2]\n")
}

// ---------------------------------------------------------------------------
// 5. Sessions
// ---------------------------------------------------------------------------

func TestIntegrationE2E_EvalGlobalPersistence(t *testing.T) {
	s, out := newSession()
	inputs := []string{
		"var x = 10",
		"class Acc { init() { self.total = 0 } add(n) { self.total = self.total + n; return self.total } }",
		"var acc = Acc()",
		"acc.add(x)",
		"print(acc.add(5))",
	}
	for _, in := range inputs {
		s.Reset()
		if err := s.Run(in); err != nil {
			t.Fatalf("Run(%q): %v %v", in, err, s.Diagnostics())
		}
	}
	if out.String() != "15\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestIntegrationE2E_RuntimeErrorStopsProgram(t *testing.T) {
	s, out := newSession()
	s.Run("print(1)\nprint([].pop())\nprint(2)")
	if out.String() != "1\n" {
		t.Errorf("output = %q", out.String())
	}
	if s.ExitCode() != session.ExitRuntime {
		t.Errorf("exit code = %d", s.ExitCode())
	}
	d := s.Diagnostics()
	if len(d) != 1 || d[0].Line != 2 {
		t.Errorf("diagnostics = %v", d)
	}
}
