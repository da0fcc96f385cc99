// Command gotales runs the GoTales server and its offline tools.
package main

func main() {
	Execute()
}
